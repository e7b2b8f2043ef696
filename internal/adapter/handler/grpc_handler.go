package handler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported by the gRPC health service.
const ServiceName = "foodordering.v1.FoodOrdering"

// NewGRPCServer returns a server exposing grpc.health.v1 and reflection.
// Statuses start as SERVING; WatchHealth keeps them current.
func NewGRPCServer(opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(opts...)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return srv, hs
}

// WatchHealth pings every dependency each interval and flips the serving
// status when any of them fails. It returns when ctx is done.
func WatchHealth(ctx context.Context, hs *health.Server, interval time.Duration, deps []Dependency, log logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	current := healthpb.HealthCheckResponse_SERVING
	for {
		status := checkDependencies(ctx, deps, log)
		if status != current {
			log.WithField("status", status.String()).Warn("serving status changed")
			current = status
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(ServiceName, status)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func checkDependencies(ctx context.Context, deps []Dependency, log logrus.FieldLogger) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	for _, dep := range deps {
		if err := dep.Pinger.Ping(pingCtx); err != nil {
			log.WithError(err).WithField("dependency", dep.Name).Warn("dependency unavailable")
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	return status
}
