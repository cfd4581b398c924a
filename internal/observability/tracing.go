// Package observability provides OpenTelemetry tracing and logging
// utilities.
package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName identifies the tracer used for routing spans.
const TracerName = "gatewayrouter"

// TracingConfig toggles the optional in-process tracing hook. There is no
// OTLP exporter in scope (SPEC_FULL.md §2): enabling tracing installs an
// SDK tracer provider (also set as the global otel provider) with no span
// processor and no exporter, so spans are created, sampled and attributed
// but are not exported anywhere unless a caller registers a span processor
// on that provider.
type TracingConfig struct {
	Enabled bool
}

// TracerProvider wraps the OpenTelemetry tracer provider used for routing
// spans.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes tracing. When disabled, it returns a no-op
// tracer so callers can unconditionally call StartRouteSpan.
func InitTracing(cfg TracingConfig) *TracerProvider {
	if !cfg.Enabled {
		return &TracerProvider{tracer: noop.NewTracerProvider().Tracer(TracerName)}
	}

	provider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(provider)

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}
}

// Tracer returns the tracer instance.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// StartRouteSpan starts a span around one Route() call with the
// attributes useful for diagnosing a routing decision.
func StartRouteSpan(ctx context.Context, tracer trace.Tracer, task string, inputTokens int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "route",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("gatewayrouter.task", task),
			attribute.Int("gatewayrouter.input_tokens", inputTokens),
		),
	)
}

// RecordDecision records the outcome of a routing decision on span.
func RecordDecision(span trace.Span, modelID string, estimatedCost float64, fallback bool) {
	span.SetAttributes(
		attribute.String("gatewayrouter.model_id", modelID),
		attribute.Float64("gatewayrouter.estimated_cost", estimatedCost),
		attribute.Bool("gatewayrouter.fallback", fallback),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("error", true))
}
