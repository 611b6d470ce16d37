package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records pulse metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordOperation records one complete fan-out of an operation.
	RecordOperation(ctx context.Context, operation string, duration time.Duration)

	// RecordIntegrationCall records one hook invocation and its outcome.
	RecordIntegrationCall(ctx context.Context, integrationKey, operation string, duration time.Duration, err error)

	// RecordLifecycleEvent records an application-level lifecycle event.
	RecordLifecycleEvent(ctx context.Context, event string)

	// RecordQueueDepth adjusts the pending operation gauge by delta.
	RecordQueueDepth(ctx context.Context, delta int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	operations       metric.Int64Counter
	operationLatency metric.Float64Histogram
	integrationCalls metric.Int64Counter
	faults           metric.Int64Counter
	lifecycleEvents  metric.Int64Counter
	queueDepth       metric.Int64UpDownCounter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the default OTel metrics instance.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("pulse")

	operations, err := meter.Int64Counter("pulse.operations",
		metric.WithDescription("Number of operations fanned out"),
	)
	if err != nil {
		return nil, err
	}

	operationLatency, err := meter.Float64Histogram("pulse.operation.latency_ms",
		metric.WithDescription("Fan-out latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	integrationCalls, err := meter.Int64Counter("pulse.integration.calls",
		metric.WithDescription("Number of integration hook invocations"),
	)
	if err != nil {
		return nil, err
	}

	faults, err := meter.Int64Counter("pulse.integration.faults",
		metric.WithDescription("Number of integration hook failures"),
	)
	if err != nil {
		return nil, err
	}

	lifecycleEvents, err := meter.Int64Counter("pulse.lifecycle.events",
		metric.WithDescription("Number of application lifecycle events"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64UpDownCounter("pulse.queue.depth",
		metric.WithDescription("Operations waiting for the dispatch worker"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		operations:       operations,
		operationLatency: operationLatency,
		integrationCalls: integrationCalls,
		faults:           faults,
		lifecycleEvents:  lifecycleEvents,
		queueDepth:       queueDepth,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordOperation records a fan-out.
func (m *otelMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("operation", operation))
	m.operations.Add(ctx, 1, attrs)
	m.operationLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordIntegrationCall records a hook invocation.
func (m *otelMetrics) RecordIntegrationCall(ctx context.Context, integrationKey, operation string, _ time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("integration", integrationKey),
		attribute.String("operation", operation),
	)
	m.integrationCalls.Add(ctx, 1, attrs)
	if err != nil {
		m.faults.Add(ctx, 1, attrs)
	}
}

// RecordLifecycleEvent records a lifecycle event.
func (m *otelMetrics) RecordLifecycleEvent(ctx context.Context, event string) {
	m.lifecycleEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
}

// RecordQueueDepth adjusts the queue depth gauge.
func (m *otelMetrics) RecordQueueDepth(ctx context.Context, delta int64) {
	m.queueDepth.Add(ctx, delta)
}
