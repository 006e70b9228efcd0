package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/searchterms/internal/server/handlers"
	"github.com/agentstation/searchterms/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()
	h := handlers.New(s.plugin, s.logger, s.config.MaxBodyBytes, s.startTime)
	s.registerRoutes(mux, h)
	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	mux.HandleFunc("GET /health", h.HandleHealth)

	mux.HandleFunc("POST /hooks/resources/created", h.HandleResourceCreated)
	mux.HandleFunc("POST /hooks/resources/updated", h.HandleResourceUpdated)
	mux.HandleFunc("POST /hooks/resources/deleted", h.HandleResourceDeleted)
	mux.HandleFunc("POST /hooks/datasets/before-index", h.HandleBeforeIndex)

	mux.HandleFunc("GET /status/{resource_id}", h.HandleStatus)
	mux.HandleFunc("GET /terms/{dataset}", h.HandleTerms)

	if s.config.MetricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	if cfg.RateLimit > 0 {
		handler = middleware.RateLimit(middleware.NewRateLimiter(s.ctx, cfg.RateLimit, s.logger))(handler)
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig()
		authConfig.Enabled = true
		authConfig.APIKey = cfg.APIKey
		authConfig.HeaderName = cfg.AuthHeader
		handler = middleware.Auth(authConfig, s.logger)(handler)
	}

	return middleware.Chain(
		middleware.Recovery(s.logger),
		middleware.Logger(s.logger),
	)(handler)
}
