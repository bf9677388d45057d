package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/lcalzada-xor/cvelens/internal/core/ports"
)

// PredictorService is the health-check name reflecting model readiness.
const PredictorService = "cvelens.Predictor"

// HealthReporter mirrors the prediction service's readiness into the gRPC health service.
type HealthReporter struct {
	health  *health.Server
	service ports.PredictionService
}

// NewGrpcServer builds a gRPC server exposing grpc.health.v1. The overall status ("")
// is SERVING while the process runs; PredictorService is SERVING once a model is loaded.
func NewGrpcServer(svc ports.PredictionService) (*grpc.Server, *HealthReporter) {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	r := &HealthReporter{health: hs, service: svc}
	r.Refresh()
	return s, r
}

// Refresh sets PredictorService from the current model state.
func (r *HealthReporter) Refresh() {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if _, ok := r.service.Info(); ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	r.health.SetServingStatus(PredictorService, status)
}

// Watch refreshes the status every interval until ctx ends, then marks everything NOT_SERVING.
func (r *HealthReporter) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.health.Shutdown()
			return
		case <-ticker.C:
			r.Refresh()
		}
	}
}
