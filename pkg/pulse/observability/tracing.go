package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrIntegration = attribute.Key("integration")
	AttrOperation   = attribute.Key("operation")
)

// Span name prefixes. The operation name or integration key is appended.
const (
	spanDispatch    = "pulse.dispatch."
	spanIntegration = "pulse.integration."
)

var tracer = otel.Tracer("pulse")

// SpanManager starts and ends the spans of a dispatch: one parent per
// operation and one child per integration hook it reaches.
type SpanManager interface {
	StartDispatchSpan(ctx context.Context, operation string) (context.Context, trace.Span)
	StartIntegrationSpan(ctx context.Context, integrationKey, operation string) (context.Context, trace.Span)
	EndSpanWithError(span trace.Span, err error)
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager backed by the global tracer
// provider, which must be configured before the first dispatch.
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

func (otelSpanManager) StartDispatchSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, spanDispatch+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrOperation.String(operation)),
	)
}

func (otelSpanManager) StartIntegrationSpan(ctx context.Context, integrationKey, operation string) (context.Context, trace.Span) {
	return tracer.Start(ctx, spanIntegration+integrationKey,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			AttrIntegration.String(integrationKey),
			AttrOperation.String(operation),
		),
	)
}

func (otelSpanManager) EndSpanWithError(span trace.Span, err error) { EndSpanWithError(span, err) }

func (otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// EndSpanWithError sets the span status from err and ends it. A nil span
// is ignored.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddSpanEvent records an event on the span carried by ctx, if it is
// recording.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
