// Package grpcapi exposes the comments service over gRPC. Only the standard
// health service is served; it reflects the comment store's reachability.
package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-check service name for the comment store.
const ServiceName = "mflix.comments"

// Pinger is satisfied by every store.CommentStore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health tracks store reachability on a grpc health server.
type Health struct {
	srv      *health.Server
	store    Pinger
	log      *zap.Logger
	interval time.Duration
}

func NewHealth(store Pinger, log *zap.Logger, interval time.Duration) *Health {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Health{srv: health.NewServer(), store: store, log: log, interval: interval}
}

// NewServer builds a gRPC server with the health service and reflection registered.
func NewServer(h *Health) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s
}

// Check pings the store once and publishes the result.
func (h *Health) Check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, h.interval)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("comment store ping failed", zap.Error(err))
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus("", st)
	h.srv.SetServingStatus(ServiceName, st)
}

// Watch runs Check every interval until ctx is done, then marks the
// service as not serving.
func (h *Health) Watch(ctx context.Context) {
	h.Check(ctx)
	t := time.NewTicker(h.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-t.C:
			h.Check(ctx)
		}
	}
}
