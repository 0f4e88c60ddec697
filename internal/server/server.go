package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/illumi1717/realdeko-site-backend/internal/auth"
)

// Server is the realdeko HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	handlers   *Handlers
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a
// Server. Optional fields (nil-safe): Runner, Sender.
type ServerConfig struct {
	// Required dependencies.
	Store  Store
	JWTMgr *auth.JWTManager
	Logger *slog.Logger

	// Optional dependencies (nil = disabled).
	Runner Runner
	Sender Sender

	// HTTP server settings.
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	Version             string
	MaxRequestBodyBytes int64

	// Admin credentials.
	AdminUsername     string
	AdminPasswordHash string

	// Media storage root for uploads and static serving.
	MediaRoot string
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Store:               cfg.Store,
		JWTMgr:              cfg.JWTMgr,
		Runner:              cfg.Runner,
		Sender:              cfg.Sender,
		Logger:              cfg.Logger,
		Version:             cfg.Version,
		MaxRequestBodyBytes: cfg.MaxRequestBodyBytes,
		AdminUsername:       cfg.AdminUsername,
		AdminPasswordHash:   cfg.AdminPasswordHash,
		MediaRoot:           cfg.MediaRoot,
	})

	mux := http.NewServeMux()

	// Auth (no auth required).
	mux.HandleFunc("POST /auth/token", h.HandleAuthToken)

	// Public article surface.
	mux.HandleFunc("GET /v1/articles", h.HandleListArticles)
	mux.HandleFunc("GET /v1/articles/{slug}", h.HandleGetArticle)
	mux.HandleFunc("GET /v1/articles/{slug}/related", h.HandleRelatedArticles)

	// Admin article management.
	admin := requireAdmin
	mux.Handle("POST /v1/articles", admin(http.HandlerFunc(h.HandleCreateArticle)))
	mux.Handle("PATCH /v1/articles/{slug}", admin(http.HandlerFunc(h.HandleUpdateArticle)))
	mux.Handle("DELETE /v1/articles/{slug}", admin(http.HandlerFunc(h.HandleDeleteArticle)))

	// Ingested posts and pipeline control (admin).
	mux.Handle("GET /v1/posts", admin(http.HandlerFunc(h.HandleListPosts)))
	mux.Handle("POST /v1/pipeline/run", admin(http.HandlerFunc(h.HandlePipelineRun)))
	mux.Handle("GET /v1/pipeline/status", admin(http.HandlerFunc(h.HandlePipelineStatus)))

	// Contact applications (public).
	mux.HandleFunc("POST /v1/applications", h.HandleCreateApplication)

	// Media: admin upload, public static serving.
	mux.Handle("POST /v1/media", admin(http.HandlerFunc(h.HandleUploadMedia)))
	mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(cfg.MediaRoot))))

	// Health (no auth).
	mux.HandleFunc("GET /health", h.HandleHealth)

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → auth → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	handler = authMiddleware(cfg.JWTMgr, handler)
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler:  handler,
		handlers: h,
		logger:   cfg.Logger,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
