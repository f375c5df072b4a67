package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mselser95/arb-scanner/internal/queue"
	"github.com/mselser95/arb-scanner/pkg/cache"
	"github.com/mselser95/arb-scanner/pkg/healthprobe"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Broadcaster serves the dashboard WebSocket upgrade handler.
type Broadcaster interface {
	Handler() http.HandlerFunc
}

// Server provides the ambient HTTP surface of SPEC_FULL.md §6: health,
// readiness, metrics, latest opportunities, and the dashboard WebSocket
// upgrade.
type Server struct {
	server        *http.Server
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
}

// Config holds server configuration.
type Config struct {
	Port          string
	Logger        *zap.Logger
	HealthChecker *healthprobe.HealthChecker
	Cache         cache.Cache
	Queue         *queue.Queue
	Broadcaster   Broadcaster
}

// New creates a new HTTP server.
func New(cfg *Config) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/health", cfg.HealthChecker.Health())
	r.Get("/ready", cfg.HealthChecker.Ready())

	if cfg.Cache != nil {
		oppHandler := NewOpportunitiesHandler(cfg.Cache, cfg.Logger)
		r.Get("/api/opportunities", oppHandler.HandleLatest)
	}

	if cfg.Queue != nil {
		queueHandler := NewQueueHandler(cfg.Queue, cfg.Logger)
		r.Get("/api/queue/stats", queueHandler.HandleStats)
	}

	if cfg.Broadcaster != nil {
		r.Get("/ws/opportunities", cfg.Broadcaster.Handler())
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		server:        server,
		logger:        cfg.Logger,
		healthChecker: cfg.HealthChecker,
	}
}

// Start starts the HTTP server. This is a blocking call that returns when
// the server stops or encounters an error.
func (s *Server) Start() error {
	s.logger.Info("http-server-starting", zap.String("addr", s.server.Addr))

	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http-server-shutting-down")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.logger.Info("http-server-shutdown-complete")
	return nil
}
