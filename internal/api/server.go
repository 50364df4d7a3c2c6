// Package api provides the HTTP API server and handlers for the notes service.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/notekeep/notekeep-server/internal/auth"
	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/http/response"
	"github.com/notekeep/notekeep-server/internal/metrics"
	"github.com/notekeep/notekeep-server/internal/ratelimit"
	"github.com/notekeep/notekeep-server/internal/service"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	notes   *service.NoteService
	keys    *auth.Keyring
	cfg     *config.Config
	limiter *ratelimit.KeyedRateLimiter
	router  *chi.Mux
	api     huma.API
	logger  *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, notes *service.NoteService, keys *auth.Keyring, logger *slog.Logger) *Server {
	s := &Server{
		notes:  notes,
		keys:   keys,
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: logger,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = ratelimit.New(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, ratelimit.DefaultIdleTTL)
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Notes API", Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:   "http",
			Scheme: "bearer",
		},
	}
	// Response bodies are exactly the documented shapes, without $schema links.
	humaConfig.CreateHooks = nil
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(accessLog(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(metrics.Middleware)
	s.router.Use(cors.Handler(corsOptions(s.cfg.CORS)))
	if s.limiter != nil {
		s.router.Use(RateLimitMiddleware(s.limiter, s.logger))
	}
	s.router.Use(authMiddleware)

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Handle("/metrics", metrics.Handler())

	s.registerHealthRoutes()
	s.registerNoteRoutes()
	s.registerExportRoutes()
}

// corsOptions allows the web UI. Origins are matched by prefix so one setting
// covers every path-scoped deployment of the UI.
func corsOptions(cfg config.CORSConfig) cors.Options {
	return cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return cfg.UIOrigin != "" && strings.HasPrefix(origin, cfg.UIOrigin)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{headerNextCursor, headerRankDisabled},
		MaxAge:         600,
	}
}
