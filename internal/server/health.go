package server

import (
	"fmt"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService exposes the standard gRPC health checking protocol so that
// orchestrators can probe the arena server.
type HealthService struct {
	addr   string
	server *grpc.Server
	health *health.Server
	logger *zap.Logger
}

// NewHealthService creates a health service that will listen on addr.
// The overall status ("") starts as SERVING.
//
// Precondition: logger must be non-nil.
func NewHealthService(addr string, logger *zap.Logger) *HealthService {
	hs := health.NewServer()
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthService{addr: addr, server: srv, health: hs, logger: logger}
}

// SetServing records whether component is able to serve.
func (s *HealthService) SetServing(component string, ok bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(component, status)
	s.logger.Debug("health status changed",
		zap.String("component", component),
		zap.String("status", status.String()),
	)
}

// Start listens on the configured address and serves until Stop.
func (s *HealthService) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	return s.Serve(lis)
}

// Serve serves health checks on lis until Stop.
func (s *HealthService) Serve(lis net.Listener) error {
	s.logger.Info("gRPC health server listening", zap.String("addr", lis.Addr().String()))
	return s.server.Serve(lis)
}

// Stop marks every component NOT_SERVING and drains in-flight checks.
func (s *HealthService) Stop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}
