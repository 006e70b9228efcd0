// Package server exposes the plugin's resource and indexing hooks over
// HTTP, so a host application can drive it with webhooks.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/searchterms"
	"github.com/agentstation/searchterms/pkg/errors"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	plugin    searchterms.Plugin
	logger    *zerolog.Logger
	config    Config
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// New creates a new server instance with the given configuration.
func New(plugin searchterms.Plugin, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if plugin == nil {
		return nil, errors.NewConfigError("server", "a plugin is required", nil)
	}
	if cfg.AuthEnabled && cfg.APIKey == "" {
		return nil, errors.NewConfigError("server", "authentication is enabled but no API key is set", nil)
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = DefaultConfig().AuthHeader
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	ctx, cancel := context.WithCancel(context.Background())
	logger.Debug().Str("addr", cfg.Addr()).Bool("auth", cfg.AuthEnabled).Msg("Created webhook server")
	return &Server{
		plugin:    plugin,
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}, nil
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Webhook server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.cancel()
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutting down webhook server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.cancel()
	if err != nil {
		return errors.NewTimeoutError("server shutdown", shutdownTimeout.String(), err.Error())
	}
	return nil
}

// Shutdown stops background services such as the rate limiter.
func (s *Server) Shutdown(context.Context) error {
	s.cancel()
	return nil
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}
