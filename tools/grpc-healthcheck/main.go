// Command grpc-healthcheck asks a booking service for its grpc.health.v1
// status and exits 0 only when it is SERVING. Meant for container health
// checks.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/courtbook/libs/grpcx"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	var (
		addr    = flag.String("addr", getenv("GRPC_HEALTH_ADDR", "localhost:9083"), "booking service gRPC address")
		service = flag.String("service", getenv("GRPC_HEALTH_SERVICE", ""), "service name to check; empty checks the server")
		timeout = flag.Duration("timeout", 3*time.Second, "check timeout")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	status, err := checkHealth(ctx, *addr, *service)
	if err != nil {
		fmt.Fprintln(os.Stderr, "health check failed:", err)
		os.Exit(2)
	}
	fmt.Printf("status=%s\n", status)
	if status != healthpb.HealthCheckResponse_SERVING {
		os.Exit(1)
	}
}

func checkHealth(ctx context.Context, addr, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	conn, err := grpcx.Dial(addr, nil)
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	defer conn.Close()

	ctx = grpcx.WithRequestID(ctx, grpcx.NewRequestID())
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
