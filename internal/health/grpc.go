package health

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside the overall status.
const ServiceName = "pawtine.Routines"

// GRPCServer exposes the standard grpc.health.v1 service.
type GRPCServer struct {
	server *grpc.Server
	health *health.Server
}

// NewGRPCServer creates a health server that starts NOT_SERVING.
func NewGRPCServer() *GRPCServer {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &GRPCServer{server: srv, health: hs}
}

// SetHealthy updates the reported status. It can be passed to StoreChecker.OnChange.
func (s *GRPCServer) SetHealthy(healthy bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if healthy {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve blocks serving on lis until Stop is called.
func (s *GRPCServer) Serve(lis net.Listener) error {
	slog.Info("gRPC health server listening", "addr", lis.Addr().String())
	if err := s.server.Serve(lis); err != nil {
		return fmt.Errorf("serve grpc health: %w", err)
	}
	return nil
}

// ListenAndServe listens on :port and serves.
func (s *GRPCServer) ListenAndServe(port string) error {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("listen grpc health: %w", err)
	}
	return s.Serve(lis)
}

// Stop marks every service NOT_SERVING and drains connections.
func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
