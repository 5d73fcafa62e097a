package admin

import (
	"log/slog"
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check service name reported for the web server.
const ServiceName = "webpool.Server"

// HealthServer runs the gRPC health service. It reports SERVING from
// construction until Stop.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthServer(logger *slog.Logger) *HealthServer {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &HealthServer{
		grpc:   srv,
		health: hs,
		logger: logger.With("component", "health-server"),
	}
}

// Serve blocks serving on lis.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info("gRPC health server listening", "addr", lis.Addr().String())
	return h.grpc.Serve(lis)
}

// Draining flips every service to NOT_SERVING while the process finishes
// its in-flight work.
func (h *HealthServer) Draining() {
	h.health.Shutdown()
}

// Stop marks the node NOT_SERVING and stops the gRPC server gracefully.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
