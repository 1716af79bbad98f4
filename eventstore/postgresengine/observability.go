package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

const (
	spanNamePrefix    = "eventstore."
	spanAttrEventType = "event_type"
	spanAttrErrorType = "error_type"
	spanAttrEngine    = "engine"
	statusSuccess     = "success"
	statusError       = "error"
	statusConflict    = "conflict"
	errorTypeDatabase = "database"
	errorTypeScan     = "scan"
)

func (es EventStore) labels(operation string) map[string]string {
	return map[string]string{
		eventstore.MetricLabelEngine:    engineName,
		eventstore.MetricLabelOperation: operation,
	}
}

func (es EventStore) recordSuccess(
	ctx context.Context,
	operation string,
	durationMetric string,
	countMetric string,
	eventCount int,
	duration time.Duration,
) {

	labels := es.labels(operation)
	eventstore.RecordDuration(ctx, es.metricsCollector, durationMetric, duration, labels)
	eventstore.RecordValue(ctx, es.metricsCollector, countMetric, float64(eventCount), labels)
}

func (es EventStore) recordError(ctx context.Context, operation, errorType string) {
	labels := es.labels(operation)
	labels[eventstore.MetricLabelErrorType] = errorType
	eventstore.IncrementCounter(ctx, es.metricsCollector, eventstore.MetricDatabaseErrors, labels)
}

func (es EventStore) recordConflict(ctx context.Context) {
	eventstore.IncrementCounter(ctx, es.metricsCollector, eventstore.MetricConcurrencyConflicts, es.labels(eventstore.OperationAppend))
}

// startSpan returns a nil span when no tracing collector is configured.
func (es EventStore) startSpan(ctx context.Context, operation string, attrs map[string]string) (context.Context, eventstore.SpanContext) {
	if es.tracingCollector == nil {
		return ctx, nil
	}

	spanAttrs := map[string]string{spanAttrEngine: engineName}
	for k, v := range attrs {
		spanAttrs[k] = v
	}

	return es.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, spanAttrs)
}

func (es EventStore) finishSpan(span eventstore.SpanContext, status string, err error) {
	if es.tracingCollector == nil || span == nil {
		return
	}

	var attrs map[string]string
	if err != nil {
		attrs = map[string]string{spanAttrErrorType: err.Error()}
	}

	es.tracingCollector.FinishSpan(span, status, attrs)
}

func (es EventStore) logQueryWithDuration(ctx context.Context, sqlQuery string, action string, duration time.Duration) {
	es.logDebug(ctx, logMsgSQLExecuted+action, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
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

func (es EventStore) logWarn(ctx context.Context, msg string, args ...any) {
	if es.contextualLogger != nil {
		es.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if es.logger != nil {
		es.logger.Warn(msg, args...)
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
