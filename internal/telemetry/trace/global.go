package trace

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"voice_conversion/config"
	"voice_conversion/internal/telemetry/trace/exporter"
)

const otlpDialTimeout = 10 * time.Second

// InitGlobalProvider installs a tracer provider for the configured exporter.
// With exporter "none" the otel no-op provider stays in place and the
// returned CloseFunc does nothing.
func InitGlobalProvider(name string, cfg config.OTEL) (CloseFunc, error) {
	var (
		spanExporter sdktrace.SpanExporter
		err          error
	)

	switch cfg.Exporter {
	case "", "none":
		return func(context.Context) error { return nil }, nil
	case "jaeger":
		spanExporter, err = exporter.NewJaeger(cfg.JaegerEndpoint)
	case "otlp":
		ctx, cancel := context.WithTimeout(context.Background(), otlpDialTimeout)
		defer cancel()
		spanExporter, err = exporter.NewOTLP(ctx, cfg.OTLPEndpoint)
	default:
		return nil, fmt.Errorf("unknown otel exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed initializing the tracer exporter: %w", err)
	}

	tracerProvider, closeFn, err := NewTraceProviderBuilder(name).
		SetExporter(spanExporter).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed initializing the tracer provider: %w", err)
	}

	// set global propagator to tracecontext (the default is no-op).
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	otel.SetTracerProvider(tracerProvider)

	return closeFn, nil
}
