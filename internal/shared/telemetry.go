package shared

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider creates an OpenTelemetry tracer provider and installs it globally.
//
// When cfg.TraceStdout is set, finished spans are written to w as pretty-printed JSON; otherwise
// spans are recorded but not exported. Callers must Shutdown the provider to flush spans.
func NewTracerProvider(cfg TelemetryConfig, w io.Writer) (*sdktrace.TracerProvider, error) {
	var opts []sdktrace.TracerProviderOption

	if cfg.TraceStdout {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}

	provider := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(provider)
	return provider, nil
}

// ShutdownTracer flushes and stops provider, ignoring a nil provider.
func ShutdownTracer(ctx context.Context, provider *sdktrace.TracerProvider) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}
