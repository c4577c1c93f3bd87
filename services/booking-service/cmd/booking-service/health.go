package main

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/grpcx"
	"github.com/md-rashed-zaman/courtbook/libs/runtime"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// startHealthServer serves grpc.health.v1 and keeps its status in step with
// the HTTP readiness checks. It returns the bound address, or nil when the
// port could not be opened.
func startHealthServer(ctx context.Context, cfg settings, checks []runtime.ReadyCheck, logger *slog.Logger) net.Addr {
	lis, err := net.Listen("tcp", ":"+cfg.grpcPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		return nil
	}
	hs := health.NewServer()
	srv := grpcx.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	update := func() {
		status := healthpb.HealthCheckResponse_SERVING
		if !runtime.Ready(ctx, checks...) {
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
		hs.SetServingStatus("", status)
		hs.SetServingStatus(cfg.service, status)
	}
	update()

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				hs.Shutdown()
				return
			case <-ticker.C:
				update()
			}
		}
	}()
	go grpcx.Serve(ctx, srv, lis, logger)
	return lis.Addr()
}
