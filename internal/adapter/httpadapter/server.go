// Package httpadapter serves a rendered map document alongside health,
// readiness and metrics endpoints.
package httpadapter

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/volcano-map/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the published map at / plus /healthz, /readyz and /metrics.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *observability.Metrics
	page       atomic.Pointer[[]byte]
}

// NewServer creates a preview server. It reports not ready until Publish is
// called.
func NewServer(addr string, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /{$}", s.handleMap)
	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(s))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Publish replaces the served page. Safe to call while serving.
func (s *Server) Publish(page []byte) {
	cp := append([]byte(nil), page...)
	s.page.Store(&cp)
	s.logger.Debug("map published", "bytes", len(cp))
}

// CheckReadiness returns nil once a page has been published.
func (s *Server) CheckReadiness(_ context.Context) error {
	if s.page.Load() == nil {
		return errors.New("no map published yet")
	}
	return nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleMap(w http.ResponseWriter, _ *http.Request) {
	page := s.page.Load()
	if page == nil {
		http.Error(w, "map not published yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(*page); err != nil {
		s.logger.Warn("write map response failed", "error", err)
		return
	}
	s.metrics.DocumentsServed.Inc()
}
