package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/grpcx"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestCheckHealth(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	hs := health.NewServer()
	hs.SetServingStatus("booking-service", healthpb.HealthCheckResponse_NOT_SERVING)
	srv := grpcx.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go grpcx.Serve(ctx, srv, lis, slog.New(slog.NewTextHandler(io.Discard, nil)))

	callCtx, callCancel := context.WithTimeout(ctx, 3*time.Second)
	defer callCancel()
	status, err := checkHealth(callCtx, lis.Addr().String(), "")
	if err != nil || status != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s, %v", status, err)
	}
	status, err = checkHealth(callCtx, lis.Addr().String(), "booking-service")
	if err != nil || status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING, got %s, %v", status, err)
	}
	if _, err := checkHealth(callCtx, lis.Addr().String(), "unknown"); err == nil {
		t.Fatal("expected NotFound for an unregistered service")
	}
}
