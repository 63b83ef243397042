package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/syncdeck/core/internal/config"
	"github.com/syncdeck/core/pkg/handlers/health"
	"github.com/syncdeck/core/pkg/handlers/runs"
	"github.com/syncdeck/core/pkg/logger"
	"github.com/syncdeck/core/pkg/middleware"
	"github.com/syncdeck/core/pkg/store"
)

// Server exposes the engine's status API: health, the list of active
// runs, and run cancellation. Job definitions are owned by the dashboard
// and are not served here.
type Server struct {
	router   *http.ServeMux
	srv      *http.Server
	port     string
	logger   *logger.Logger
	handlers struct {
		health *health.Handler
		runs   *runs.Handler
	}
}

// New creates a server over an already connected store. The caller owns
// the database pool lifecycle.
func New(cfg *config.Config, st store.Store, canceller runs.RunCanceller, log *logger.Logger) *Server {
	server := &Server{
		router: http.NewServeMux(),
		port:   cfg.Server.Port,
		logger: log,
	}

	server.handlers.health = health.NewHandler(log)
	server.handlers.runs = runs.NewHandler(st, canceller, log)

	server.setupRoutes()

	return server
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", middleware.CORS(s.handlers.health.HealthCheck))

	// Simple root endpoint
	s.router.HandleFunc("/", middleware.CORS(func(w http.ResponseWriter, r *http.Request) {
		if _, err := fmt.Fprintf(w, "Sync Engine - OK"); err != nil {
			http.Error(w, "Failed to write response", http.StatusInternalServerError)
		}
	}))

	// Run endpoints
	s.router.HandleFunc("/api/runs/active", middleware.CORS(s.handlers.runs.Active))
	s.router.HandleFunc("/api/runs/", middleware.CORS(s.handlers.runs.Cancel)) // handles /api/runs/{id}/cancel
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info().
		Str("action", "server_start").
		Str("port", s.port).
		Msg("Starting status API server")

	s.srv = &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start on port %s: %w", s.port, err)
	}

	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
