package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_SAMPLING_RATIO", "2")
	cfg := ConfigFromEnv("booking")
	if cfg.Enabled {
		t.Fatal("expected tracing disabled")
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("out of range ratio should fall back to 1, got %v", cfg.SampleRatio)
	}
	if cfg.ServiceName != "booking" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}

	t.Setenv("OTEL_SERVICE_NAME", "courtbook-api")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	cfg = ConfigFromEnv("booking")
	if cfg.ServiceName != "courtbook-api" || cfg.SampleRatio != 0.25 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	const tp = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := ContextWithTraceContext(context.Background(), tp, "")
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("unexpected span context %+v", sc)
	}
	gotTP, _ := TraceContextStrings(ctx)
	if gotTP != tp {
		t.Fatalf("expected %q, got %q", tp, gotTP)
	}
}
