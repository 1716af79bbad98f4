package eventstore

import (
	"context"
	"time"
)

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContextualLogger is satisfied by *slog.Logger and by the OpenTelemetry slog bridge,
// which adds trace and span ids taken from ctx.
type ContextualLogger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}

// MetricsCollector receives durations, counters and gauge values keyed by metric name and labels.
// Implementations must be safe for concurrent use.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// ContextualMetricsCollector is an optional extension of MetricsCollector.
// When a collector implements it, the context-aware methods are preferred so exemplars can be attached.
type ContextualMetricsCollector interface {
	MetricsCollector
	RecordDurationContext(ctx context.Context, metric string, duration time.Duration, labels map[string]string)
	IncrementCounterContext(ctx context.Context, metric string, labels map[string]string)
	RecordValueContext(ctx context.Context, metric string, value float64, labels map[string]string)
}

// SpanContext is an open tracing span.
type SpanContext interface {
	SetStatus(status string)
	AddAttribute(key, value string)
}

// TracingCollector opens and finishes spans on any tracing backend.
type TracingCollector interface {
	StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, SpanContext)
	FinishSpan(spanCtx SpanContext, status string, attrs map[string]string)
}

// RecordDuration prefers the context-aware method when the collector offers it. A nil collector is a no-op.
func RecordDuration(ctx context.Context, collector MetricsCollector, metric string, d time.Duration, labels map[string]string) {
	if collector == nil {
		return
	}

	if cc, ok := collector.(ContextualMetricsCollector); ok {
		cc.RecordDurationContext(ctx, metric, d, labels)
		return
	}

	collector.RecordDuration(metric, d, labels)
}

// IncrementCounter prefers the context-aware method when the collector offers it. A nil collector is a no-op.
func IncrementCounter(ctx context.Context, collector MetricsCollector, metric string, labels map[string]string) {
	if collector == nil {
		return
	}

	if cc, ok := collector.(ContextualMetricsCollector); ok {
		cc.IncrementCounterContext(ctx, metric, labels)
		return
	}

	collector.IncrementCounter(metric, labels)
}

// RecordValue prefers the context-aware method when the collector offers it. A nil collector is a no-op.
func RecordValue(ctx context.Context, collector MetricsCollector, metric string, value float64, labels map[string]string) {
	if collector == nil {
		return
	}

	if cc, ok := collector.(ContextualMetricsCollector); ok {
		cc.RecordValueContext(ctx, metric, value, labels)
		return
	}

	collector.RecordValue(metric, value, labels)
}
