package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

// allowedMediaExtensions limits uploads to the image and video types the
// site frontend renders.
var allowedMediaExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".mp4":  true,
	".webm": true,
}

// MediaUploadResponse is the POST /v1/media payload.
type MediaUploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// HandleUploadMedia handles POST /v1/media (admin, multipart). The file is
// stored under a random name; the original name only contributes its
// extension.
func (h *Handlers) HandleUploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBodyBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedMediaExtensions[ext] {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest,
			fmt.Sprintf("unsupported media type %q", ext))
		return
	}

	if err := os.MkdirAll(h.mediaRoot, 0o755); err != nil {
		h.writeInternalError(w, r, "failed to prepare media directory", err)
		return
	}

	filename := uuid.New().String() + ext
	dst, err := os.Create(filepath.Join(h.mediaRoot, filename))
	if err != nil {
		h.writeInternalError(w, r, "failed to create media file", err)
		return
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		h.writeInternalError(w, r, "failed to write media file", err)
		return
	}

	writeJSON(w, r, http.StatusCreated, MediaUploadResponse{
		URL:      "/media/" + filename,
		Filename: filename,
		Size:     size,
	})
}
