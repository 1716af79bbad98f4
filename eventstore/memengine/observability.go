package memengine

import (
	"context"
	"math"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

func (es EventStore) labels(operation string) map[string]string {
	return map[string]string{
		eventstore.MetricLabelEngine:    engineName,
		eventstore.MetricLabelOperation: operation,
	}
}

func (es EventStore) observe(
	ctx context.Context,
	operation string,
	durationMetric string,
	countMetric string,
	eventCount int,
	duration time.Duration,
) {

	if es.metricsCollector == nil {
		return
	}

	labels := es.labels(operation)
	eventstore.RecordDuration(ctx, es.metricsCollector, durationMetric, duration, labels)
	eventstore.RecordValue(ctx, es.metricsCollector, countMetric, float64(eventCount), labels)
}

func (es EventStore) logDebug(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.DebugContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Debug(msg, args...)
	}
}

func (es EventStore) logInfo(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Info(msg, args...)
	}
}

func (es EventStore) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if es.contextualLogger != nil {
		es.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if es.logger != nil {
		es.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
