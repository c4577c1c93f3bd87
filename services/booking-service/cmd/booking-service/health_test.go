package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/grpcx"
	"github.com/md-rashed-zaman/courtbook/libs/runtime"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func healthStatus(t *testing.T, checks []runtime.ReadyCheck) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	addr := startHealthServer(ctx, settings{service: "booking-service", grpcPort: "0"}, checks, logger)
	if addr == nil {
		t.Fatal("health server did not start")
	}
	conn, err := grpcx.Dial(addr.String(), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	callCtx, callCancel := context.WithTimeout(ctx, 3*time.Second)
	defer callCancel()
	resp, err := healthpb.NewHealthClient(conn).Check(callCtx, &healthpb.HealthCheckRequest{Service: "booking-service"})
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	return resp.GetStatus()
}

func TestHealthServerServing(t *testing.T) {
	checks := []runtime.ReadyCheck{
		{Name: "redis", Check: func(context.Context) error { return errors.New("down") }, Optional: true},
	}
	if got := healthStatus(t, checks); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("optional failure should keep SERVING, got %s", got)
	}
}

func TestHealthServerNotServing(t *testing.T) {
	checks := []runtime.ReadyCheck{
		{Name: "db", Check: func(context.Context) error { return errors.New("down") }},
	}
	if got := healthStatus(t, checks); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("required failure should report NOT_SERVING, got %s", got)
	}
}
