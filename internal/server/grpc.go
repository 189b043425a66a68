package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "placement-portal/backend/internal/health/handler"
)

// NewGRPCServer returns a gRPC server instrumented with otelgrpc and serving grpc.health.v1.
func NewGRPCServer(checker *healthhandler.Checker) *grpc.Server {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	RegisterServices(s, checker)
	return s
}

// RegisterServices registers the gRPC services with s. Only the health service is exposed over gRPC;
// the portal API itself is HTTP.
func RegisterServices(s grpc.ServiceRegistrar, checker *healthhandler.Checker) {
	healthpb.RegisterHealthServer(s, healthhandler.NewServer(checker))
}
