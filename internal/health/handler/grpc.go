package handler

import (
	"context"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server implements grpc.health.v1.Health on top of a Checker. Only the overall service ("") is
// known; Watch and List are left unimplemented.
type Server struct {
	healthpb.UnimplementedHealthServer
	checker *Checker
}

// NewServer returns a health server. A nil checker always reports SERVING.
func NewServer(checker *Checker) *Server {
	return &Server{checker: checker}
}

// Check reports SERVING when every probe passes and NOT_SERVING otherwise. Probe failures are
// never returned as gRPC errors.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if err := s.checker.Ready(ctx); err != nil {
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}
