package grpcapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

func status(t *testing.T, h *Health, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := h.srv.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	return resp.GetStatus()
}

func TestHealth_Check(t *testing.T) {
	p := &fakePinger{}
	h := NewHealth(p, zap.NewNop(), time.Second)

	h.Check(context.Background())
	if got := status(t, h, ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", got)
	}

	p.err = errors.New("no primary")
	h.Check(context.Background())
	if got := status(t, h, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %s", got)
	}
}

func TestHealth_WatchStopsOnCancel(t *testing.T) {
	h := NewHealth(&fakePinger{}, zap.NewNop(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Watch(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
	if got := status(t, h, ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING after shutdown, got %s", got)
	}
}

func TestNewServer_RegistersHealth(t *testing.T) {
	s := NewServer(NewHealth(&fakePinger{}, zap.NewNop(), 0))
	defer s.Stop()
	if _, ok := s.GetServiceInfo()[healthpb.Health_ServiceDesc.ServiceName]; !ok {
		t.Fatal("health service not registered")
	}
}
