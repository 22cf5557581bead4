// Package http serves the elitewave API, the stream proxy and the event
// stream from one chi router with huma operations mounted on it.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/digitallive06-cyber/Elite-wave-GO/internal/config"
	"github.com/digitallive06-cyber/Elite-wave-GO/internal/http/middleware"
)

// compressionLevel is the gzip level for API responses.
const compressionLevel = 5

// Server owns the router and the listening http.Server.
type Server struct {
	config config.ServerConfig
	router *chi.Mux
	api    huma.API
	logger *slog.Logger
}

// NewServer builds the router and its middleware chain. streamPaths carry
// media bodies: CORS and compression leave them alone and the access log
// writes them at debug.
func NewServer(cfg config.ServerConfig, logger *slog.Logger, version string, streamPaths ...string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORSOrigins
	}
	cors.SkipPaths = streamPaths

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RealIP,
		middleware.RequestID,
		middleware.NewLoggingMiddleware(logger, streamPaths...),
		middleware.Recovery(logger),
		middleware.CORSWithConfig(cors),
		middleware.SkipCompression(chimiddleware.Compress(compressionLevel), streamPaths...),
	)

	apiConfig := huma.DefaultConfig("elitewave API", version)
	apiConfig.Info.Description = "IPTV stream proxy, catalog and playback API"

	return &Server{
		config: cfg,
		router: router,
		api:    humachi.New(router, apiConfig),
		logger: logger,
	}
}

// API is where typed operations are registered.
func (s *Server) API() huma.API { return s.api }

// Router is where raw streaming routes are registered.
func (s *Server) Router() *chi.Mux { return s.router }

// ListenAndServe listens on the configured address and serves until ctx
// is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Address())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Address(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then drains open
// requests for at most ShutdownTimeout. Streams still open after that are
// cut.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()
	s.logger.Info("HTTP server listening", slog.String("address", ln.Addr().String()))

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving HTTP: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("HTTP server draining", slog.Duration("timeout", s.config.ShutdownTimeout))
	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		_ = srv.Close()
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}
