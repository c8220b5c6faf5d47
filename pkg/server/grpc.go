package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// NewGRPCHealthServer creates a gRPC server exposing the standard health
// service. The health server starts as NOT_SERVING; the caller flips it to
// SERVING once the in-memory caches are warm.
func NewGRPCHealthServer(enableReflection bool) (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	if enableReflection {
		reflection.Register(grpcServer)
	}

	return grpcServer, healthServer
}
