package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "page-patrol"

// Metrics holds the metric instruments for page-patrol.
// All counters are cumulative and safe for concurrent use.
type Metrics struct {
	// Capture counters (partitioned by kind + event via attributes)
	Captures        metric.Int64Counter
	CaptureFailures metric.Int64Counter
	CaptureBytes    metric.Int64Counter

	// Intercepted driver calls (partitioned by operation)
	InterceptedCalls metric.Int64Counter
}

// NewMetrics creates all metric instruments on provider. A no-op provider
// yields instruments that record nothing.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	meter := provider.Meter(meterName)
	m := &Metrics{}
	var err error

	m.Captures, err = meter.Int64Counter("snapshot.captures",
		metric.WithDescription("Artifacts written, partitioned by kind and event"))
	if err != nil {
		return nil, err
	}

	m.CaptureFailures, err = meter.Int64Counter("snapshot.failures",
		metric.WithDescription("Capture attempts that failed and were swallowed"))
	if err != nil {
		return nil, err
	}

	m.CaptureBytes, err = meter.Int64Counter("snapshot.bytes",
		metric.WithDescription("Total artifact bytes written"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	m.InterceptedCalls, err = meter.Int64Counter("driver.intercepted_calls",
		metric.WithDescription("Driver operations that passed through an installed hook"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCapture records a written artifact.
func (m *Metrics) RecordCapture(ctx context.Context, kind, event string, bytes int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("snapshot.kind", kind),
		attribute.String("snapshot.event", event),
	)
	m.Captures.Add(ctx, 1, attrs)
	m.CaptureBytes.Add(ctx, int64(bytes), attrs)
}

// RecordFailure records a swallowed capture failure.
func (m *Metrics) RecordFailure(ctx context.Context, kind, event string) {
	if m == nil {
		return
	}
	m.CaptureFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("snapshot.kind", kind),
		attribute.String("snapshot.event", event),
	))
}

// RecordIntercept records one call through an installed hook.
func (m *Metrics) RecordIntercept(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.InterceptedCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("driver.operation", operation),
	))
}
