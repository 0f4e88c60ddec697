package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
	"github.com/illumi1717/realdeko-site-backend/internal/storage"
)

// HandleListArticles handles GET /v1/articles. The public view is limited
// to published articles; an authenticated admin may filter by ?status= or
// list everything.
func (h *Handlers) HandleListArticles(w http.ResponseWriter, r *http.Request) {
	status := model.StatusPublished
	if ClaimsFromContext(r.Context()) != nil {
		status = model.ArticleStatus(r.URL.Query().Get("status"))
		if status != "" {
			if err := model.ValidateStatus(status); err != nil {
				writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
				return
			}
		}
	}

	articles, err := h.store.ListArticles(r.Context(), status)
	if err != nil {
		h.writeInternalError(w, r, "failed to list articles", err)
		return
	}
	writeJSON(w, r, http.StatusOK, articles)
}

// HandleGetArticle handles GET /v1/articles/{slug}. Drafts are only
// visible to an authenticated admin.
func (h *Handlers) HandleGetArticle(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	article, err := h.store.GetArticle(r.Context(), slug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "article not found: "+slug)
			return
		}
		h.writeInternalError(w, r, "failed to get article", err)
		return
	}

	if article.Status != model.StatusPublished && ClaimsFromContext(r.Context()) == nil {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "article not found: "+slug)
		return
	}
	writeJSON(w, r, http.StatusOK, article)
}

// HandleRelatedArticles handles GET /v1/articles/{slug}/related.
func (h *Handlers) HandleRelatedArticles(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	limit := 4
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 20 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "limit must be between 1 and 20")
			return
		}
		limit = n
	}

	related, err := h.store.RelatedArticles(r.Context(), slug, limit)
	if err != nil {
		h.writeInternalError(w, r, "failed to get related articles", err)
		return
	}
	writeJSON(w, r, http.StatusOK, related)
}

// HandleCreateArticle handles POST /v1/articles (admin).
func (h *Handlers) HandleCreateArticle(w http.ResponseWriter, r *http.Request) {
	var article model.Article
	if err := decodeJSON(w, r, &article, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if article.Slug == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, "slug is required")
		return
	}
	if err := model.ValidateDealType(article.DealType); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}
	if article.Status == "" {
		article.Status = model.StatusDraft
	}
	if err := model.ValidateStatus(article.Status); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	created, err := h.store.CreateArticle(r.Context(), article)
	if err != nil {
		if errors.Is(err, storage.ErrSlugTaken) {
			writeError(w, r, http.StatusConflict, model.ErrCodeConflict, "slug already taken: "+article.Slug)
			return
		}
		h.writeInternalError(w, r, "failed to create article", err)
		return
	}
	writeJSON(w, r, http.StatusCreated, created)
}

// HandleUpdateArticle handles PATCH /v1/articles/{slug} (admin).
func (h *Handlers) HandleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	var upd model.ArticleUpdate
	if err := decodeJSON(w, r, &upd, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if upd.DealType != nil {
		if err := model.ValidateDealType(*upd.DealType); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
			return
		}
	}
	if upd.Status != nil {
		if err := model.ValidateStatus(*upd.Status); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
			return
		}
	}

	updated, err := h.store.UpdateArticle(r.Context(), slug, upd)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "article not found: "+slug)
			return
		}
		h.writeInternalError(w, r, "failed to update article", err)
		return
	}
	writeJSON(w, r, http.StatusOK, updated)
}

// HandleDeleteArticle handles DELETE /v1/articles/{slug} (admin).
func (h *Handlers) HandleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	if err := h.store.DeleteArticle(r.Context(), slug); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "article not found: "+slug)
			return
		}
		h.writeInternalError(w, r, "failed to delete article", err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"deleted": slug})
}
