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

// MetricsRecorder records event bus metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPublish records an accepted event and its fan-out.
	RecordPublish(ctx context.Context, eventName string, syncHandlers, asyncHandlers int)

	// RecordRejected records an event refused before dispatch.
	RecordRejected(ctx context.Context, reason string)

	// RecordHandler records one handler invocation.
	RecordHandler(ctx context.Context, eventName, handler string, async bool, duration time.Duration, err error)

	// AsyncInFlight adjusts the number of running async handlers.
	AsyncInFlight(ctx context.Context, delta int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	published      metric.Int64Counter
	rejected       metric.Int64Counter
	fanout         metric.Int64Histogram
	invocations    metric.Int64Counter
	handlerErrors  metric.Int64Counter
	handlerLatency metric.Float64Histogram
	inFlight       metric.Int64UpDownCounter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("thinkcraft")

	published, err := meter.Int64Counter("thinkcraft.events.published",
		metric.WithDescription("Number of events accepted for dispatch"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter("thinkcraft.events.rejected",
		metric.WithDescription("Number of events refused before dispatch"),
	)
	if err != nil {
		return nil, err
	}

	fanout, err := meter.Int64Histogram("thinkcraft.events.fanout",
		metric.WithDescription("Handlers invoked per published event"),
	)
	if err != nil {
		return nil, err
	}

	invocations, err := meter.Int64Counter("thinkcraft.handler.invocations",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("thinkcraft.handler.errors",
		metric.WithDescription("Number of failed handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerLatency, err := meter.Float64Histogram("thinkcraft.handler.latency_ms",
		metric.WithDescription("Handler latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	inFlight, err := meter.Int64UpDownCounter("thinkcraft.handler.async_inflight",
		metric.WithDescription("Async handlers currently running"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		published:      published,
		rejected:       rejected,
		fanout:         fanout,
		invocations:    invocations,
		handlerErrors:  handlerErrors,
		handlerLatency: handlerLatency,
		inFlight:       inFlight,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
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

// RecordPublish records an accepted event.
func (m *otelMetrics) RecordPublish(ctx context.Context, eventName string, syncHandlers, asyncHandlers int) {
	attrs := metric.WithAttributes(attribute.String("event_name", eventName))
	m.published.Add(ctx, 1, attrs)
	m.fanout.Record(ctx, int64(syncHandlers+asyncHandlers), attrs)
}

// RecordRejected records a refused event.
func (m *otelMetrics) RecordRejected(ctx context.Context, reason string) {
	m.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordHandler records a handler invocation.
func (m *otelMetrics) RecordHandler(ctx context.Context, eventName, handler string, async bool, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("event_name", eventName),
		attribute.String("handler", handler),
		attribute.Bool("async", async),
	)

	m.invocations.Add(ctx, 1, attrs)
	m.handlerLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)

	if err != nil {
		m.handlerErrors.Add(ctx, 1, attrs)
	}
}

// AsyncInFlight adjusts the in-flight gauge.
func (m *otelMetrics) AsyncInFlight(ctx context.Context, delta int64) {
	m.inFlight.Add(ctx, delta)
}
