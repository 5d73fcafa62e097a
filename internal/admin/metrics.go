// Package admin exposes the operator-facing endpoints: Prometheus metrics
// over HTTP and the standard gRPC health service.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics and /healthz.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger
}

func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	return &MetricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("component", "metrics-server"),
	}
}

// Handler returns the admin mux.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves in the background. Listen errors other than a clean
// shutdown are logged.
func (m *MetricsServer) Start() {
	m.logger.Info("starting metrics server", "addr", m.server.Addr)
	go func() {
		if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("metrics server failed", "error", err)
		}
	}()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
