package server

import (
	"errors"
	"net/http"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
	"github.com/illumi1717/realdeko-site-backend/internal/pipeline"
)

// HandlePipelineRun handles POST /v1/pipeline/run (admin). The run
// executes in the background; the response carries the state register.
func (h *Handlers) HandlePipelineRun(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "pipeline is not configured")
		return
	}

	if err := h.runner.Start(); err != nil {
		if errors.Is(err, pipeline.ErrAlreadyRunning) {
			writeError(w, r, http.StatusConflict, model.ErrCodeConflict, "a pipeline run is already in progress")
			return
		}
		h.writeInternalError(w, r, "failed to start pipeline", err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, h.runner.Status())
}

// HandlePipelineStatus handles GET /v1/pipeline/status (admin).
func (h *Handlers) HandlePipelineStatus(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "pipeline is not configured")
		return
	}
	writeJSON(w, r, http.StatusOK, h.runner.Status())
}

// HandleListPosts handles GET /v1/posts (admin): the raw ingested feed
// with links to the articles each post produced.
func (h *Handlers) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.ListPosts(r.Context())
	if err != nil {
		h.writeInternalError(w, r, "failed to list posts", err)
		return
	}
	writeJSON(w, r, http.StatusOK, posts)
}
