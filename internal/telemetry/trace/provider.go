package trace

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// CloseFunc flushes and stops a provider.
type CloseFunc func(ctx context.Context) error

// TraceProviderBuilder -.
type TraceProviderBuilder struct {
	name     string
	exporter sdktrace.SpanExporter
	sampler  sdktrace.Sampler
}

// NewTraceProviderBuilder -.
func NewTraceProviderBuilder(name string) *TraceProviderBuilder {
	return &TraceProviderBuilder{name: name, sampler: sdktrace.AlwaysSample()}
}

// SetExporter -.
func (b *TraceProviderBuilder) SetExporter(exp sdktrace.SpanExporter) *TraceProviderBuilder {
	b.exporter = exp
	return b
}

// SetSampler -.
func (b *TraceProviderBuilder) SetSampler(s sdktrace.Sampler) *TraceProviderBuilder {
	b.sampler = s
	return b
}

// Build -.
func (b *TraceProviderBuilder) Build() (*sdktrace.TracerProvider, CloseFunc, error) {
	if b.exporter == nil {
		return nil, nil, errors.New("trace provider: exporter is required")
	}

	res := resource.NewSchemaless(attribute.String("service.name", b.name))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(b.exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(b.sampler)),
	)

	return tp, tp.Shutdown, nil
}
