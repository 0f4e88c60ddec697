package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/illumi1717/realdeko-site-backend/internal/auth"
	"github.com/illumi1717/realdeko-site-backend/internal/model"
	"github.com/illumi1717/realdeko-site-backend/internal/pipeline"
)

// Store is the persistence surface the handlers use.
type Store interface {
	Ping(ctx context.Context) error
	CreateArticle(ctx context.Context, article model.Article) (model.Article, error)
	GetArticle(ctx context.Context, slug string) (model.Article, error)
	ListArticles(ctx context.Context, status model.ArticleStatus) ([]model.Article, error)
	UpdateArticle(ctx context.Context, slug string, upd model.ArticleUpdate) (model.Article, error)
	DeleteArticle(ctx context.Context, slug string) error
	RelatedArticles(ctx context.Context, slug string, limit int) ([]model.Article, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
}

// Runner controls pipeline runs.
type Runner interface {
	Start() error
	Status() pipeline.RunState
}

// Sender forwards contact applications to the operators.
type Sender interface {
	Send(ctx context.Context, app model.Application) error
}

// Handlers holds HTTP handler dependencies.
type Handlers struct {
	store               Store
	jwtMgr              *auth.JWTManager
	runner              Runner
	sender              Sender
	logger              *slog.Logger
	startedAt           time.Time
	version             string
	maxRequestBodyBytes int64

	adminUsername     string
	adminPasswordHash string

	mediaRoot string
}

// HandlersDeps holds all dependencies for constructing Handlers.
// Optional (nil-safe): Runner, Sender.
type HandlersDeps struct {
	Store               Store
	JWTMgr              *auth.JWTManager
	Runner              Runner
	Sender              Sender
	Logger              *slog.Logger
	Version             string
	MaxRequestBodyBytes int64
	AdminUsername       string
	AdminPasswordHash   string
	MediaRoot           string
}

// NewHandlers creates a new Handlers with all dependencies.
func NewHandlers(d HandlersDeps) *Handlers {
	return &Handlers{
		store:               d.Store,
		jwtMgr:              d.JWTMgr,
		runner:              d.Runner,
		sender:              d.Sender,
		logger:              d.Logger,
		startedAt:           time.Now(),
		version:             d.Version,
		maxRequestBodyBytes: d.MaxRequestBodyBytes,
		adminUsername:       d.AdminUsername,
		adminPasswordHash:   d.AdminPasswordHash,
		mediaRoot:           d.MediaRoot,
	}
}

// writeInternalError logs the cause and responds with a generic 500.
func (h *Handlers) writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg, "error", err, "request_id", RequestIDFromContext(r.Context()))
	writeError(w, r, http.StatusInternalServerError, model.ErrCodeInternal, msg)
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Postgres string `json:"postgres"`
	Pipeline string `json:"pipeline"`
	Uptime   int64  `json:"uptime_seconds"`
}

// HandleHealth handles GET /health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	pgStatus := "connected"
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.store.Ping(r.Context()); err != nil {
		pgStatus = "disconnected"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	pipelineStatus := "disabled"
	if h.runner != nil {
		pipelineStatus = string(h.runner.Status().Status)
	}

	writeJSON(w, r, httpStatus, HealthResponse{
		Status:   status,
		Version:  h.version,
		Postgres: pgStatus,
		Pipeline: pipelineStatus,
		Uptime:   int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleAuthToken handles POST /auth/token. Verifies the admin credentials
// against the configured Argon2id hash and issues a JWT.
func (h *Handlers) HandleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req model.AuthTokenRequest
	if err := decodeJSON(w, r, &req, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	if h.adminPasswordHash == "" {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeUnavailable, "admin login is not configured")
		return
	}

	if req.Username != h.adminUsername {
		// Burn the same hashing cost as a real check so response timing
		// does not reveal whether the username exists.
		auth.DummyVerify()
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, h.adminPasswordHash)
	if err != nil {
		h.writeInternalError(w, r, "failed to verify credentials", err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusUnauthorized, model.ErrCodeUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := h.jwtMgr.IssueToken(req.Username)
	if err != nil {
		h.writeInternalError(w, r, "failed to issue token", err)
		return
	}

	writeJSON(w, r, http.StatusOK, model.AuthTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
