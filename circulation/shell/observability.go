package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

const (
	// CommandHandlerDurationMetric tracks command handler execution duration.
	CommandHandlerDurationMetric = "commandhandler_handle_duration_seconds"

	// CommandHandlerCallsMetric tracks total command handler calls.
	CommandHandlerCallsMetric = "commandhandler_handle_calls_total"

	// CommandHandlerIdempotentMetric tracks idempotent operations.
	CommandHandlerIdempotentMetric = "commandhandler_idempotent_operations_total"

	// CommandHandlerRejectedMetric tracks commands rejected by a business rule (out of stock, already returned, ...).
	CommandHandlerRejectedMetric = "commandhandler_rejected_operations_total"

	// CommandHandlerCanceledMetric tracks canceled operations.
	CommandHandlerCanceledMetric = "commandhandler_canceled_operations_total"

	// CommandHandlerTimeoutMetric tracks timeout operations.
	CommandHandlerTimeoutMetric = "commandhandler_timeout_operations_total"

	// CommandHandlerConcurrencyConflictMetric tracks commands that failed after all retries.
	CommandHandlerConcurrencyConflictMetric = "commandhandler_concurrency_conflicts_total"

	// CommandHandlerRetriesMetric tracks retry attempts in command handlers.
	//
	// Labels:
	//   - command_type: Type of command being retried (e.g., "BorrowTitle")
	//   - attempt_number: Which retry attempt (1, 2, 3, 4, 5)
	//   - error_type: Category of error causing retry (e.g., "concurrency_conflict")
	CommandHandlerRetriesMetric = "commandhandler_retries_total"

	// CommandHandlerRetryDelayMetric tracks the backoff delay before each retry.
	CommandHandlerRetryDelayMetric = "commandhandler_retry_delay_seconds"

	// CommandHandlerMaxRetriesReachedMetric tracks when max retries are exhausted.
	CommandHandlerMaxRetriesReachedMetric = "commandhandler_max_retries_reached_total"

	// QueryHandlerDurationMetric tracks query handler execution duration.
	QueryHandlerDurationMetric = "queryhandler_handle_duration_seconds"

	// QueryHandlerCallsMetric tracks total query handler calls.
	QueryHandlerCallsMetric = "queryhandler_handle_calls_total"

	// QueryHandlerCanceledMetric tracks canceled query operations.
	QueryHandlerCanceledMetric = "queryhandler_canceled_operations_total"

	// QueryHandlerTimeoutMetric tracks timeout query operations.
	QueryHandlerTimeoutMetric = "queryhandler_timeout_operations_total"

	StatusSuccess             = "success"
	StatusError               = "error"
	StatusRejected            = "rejected"
	StatusIdempotent          = "idempotent"
	StatusCanceled            = "canceled"
	StatusTimeout             = "timeout"
	StatusConcurrencyConflict = "conflict"

	LogMsgCommandStarted   = "command handler started"
	LogMsgCommandCompleted = "command handler completed"
	LogMsgCommandRejected  = "command handler rejected command"
	LogMsgCommandFailed    = "command handler failed"
	LogMsgQueryStarted     = "query handler started"
	LogMsgQueryCompleted   = "query handler completed"
	LogMsgQueryFailed      = "query handler failed"

	LogAttrCommandType     = "command_type"
	LogAttrQueryType       = "query_type"
	LogAttrStatus          = "status"
	LogAttrDurationMS      = "duration_ms"
	LogAttrBusinessOutcome = "business_outcome"
	LogAttrError           = "error"
	LogAttrRetryAttempts   = "retry_attempts"

	SpanNameCommandHandle = "commandhandler.handle"
	SpanNameQueryHandle   = "queryhandler.handle"
)

// Interface aliases for convenience, they match the event store observability interfaces.
type (
	MetricsCollector           = eventstore.MetricsCollector
	ContextualMetricsCollector = eventstore.ContextualMetricsCollector
	TracingCollector           = eventstore.TracingCollector
	SpanContext                = eventstore.SpanContext
	ContextualLogger           = eventstore.ContextualLogger
	Logger                     = eventstore.Logger
)

// BuildCommandLabels creates standard metric labels for command handler operations.
func BuildCommandLabels(commandType, status string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		LogAttrStatus:      status,
	}
}

// BuildQueryLabels creates standard metric labels for query handler operations.
func BuildQueryLabels(queryType, status string) map[string]string {
	return map[string]string{
		LogAttrQueryType: queryType,
		LogAttrStatus:    status,
	}
}

// BuildRetryLabels creates standard metric labels for retry operations.
func BuildRetryLabels(commandType string, attemptNumber int, errorType string) map[string]string {
	return map[string]string{
		LogAttrCommandType: commandType,
		"attempt_number":   strconv.Itoa(attemptNumber),
		"error_type":       errorType,
	}
}

// ToMilliseconds converts a time.Duration to float64 milliseconds.
func ToMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// CommandStatusOf classifies a command handler error for metrics, spans and logs.
func CommandStatusOf(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case IsCancellationError(err):
		return StatusCanceled
	case IsTimeoutError(err):
		return StatusTimeout
	case IsConcurrencyConflictError(err):
		return StatusConcurrencyConflict
	case IsBusinessRuleViolation(err):
		return StatusRejected
	default:
		return StatusError
	}
}

// RecordCommandMetrics records duration and call count, plus a dedicated counter for the
// idempotent, rejected, canceled, timeout and conflict outcomes.
func RecordCommandMetrics(
	ctx context.Context,
	collector MetricsCollector,
	commandType string,
	status string,
	duration time.Duration,
) {

	if collector == nil {
		return
	}

	labels := BuildCommandLabels(commandType, status)
	eventstore.RecordDuration(ctx, collector, CommandHandlerDurationMetric, duration, labels)
	eventstore.IncrementCounter(ctx, collector, CommandHandlerCallsMetric, labels)

	outcomeMetrics := map[string]string{
		StatusIdempotent:          CommandHandlerIdempotentMetric,
		StatusRejected:            CommandHandlerRejectedMetric,
		StatusCanceled:            CommandHandlerCanceledMetric,
		StatusTimeout:             CommandHandlerTimeoutMetric,
		StatusConcurrencyConflict: CommandHandlerConcurrencyConflictMetric,
	}

	if metric, ok := outcomeMetrics[status]; ok {
		eventstore.IncrementCounter(ctx, collector, metric, labels)
	}
}

// RecordQueryMetrics records duration and call count, plus the canceled and timeout counters.
func RecordQueryMetrics(
	ctx context.Context,
	collector MetricsCollector,
	queryType string,
	status string,
	duration time.Duration,
) {

	if collector == nil {
		return
	}

	labels := BuildQueryLabels(queryType, status)
	eventstore.RecordDuration(ctx, collector, QueryHandlerDurationMetric, duration, labels)
	eventstore.IncrementCounter(ctx, collector, QueryHandlerCallsMetric, labels)

	switch status {
	case StatusCanceled:
		eventstore.IncrementCounter(ctx, collector, QueryHandlerCanceledMetric, labels)
	case StatusTimeout:
		eventstore.IncrementCounter(ctx, collector, QueryHandlerTimeoutMetric, labels)
	}
}

// StartCommandSpan returns ctx unchanged and a nil span if tracing is disabled.
func StartCommandSpan(ctx context.Context, tracingCollector TracingCollector, commandType string) (context.Context, SpanContext) {
	return startSpan(ctx, tracingCollector, SpanNameCommandHandle, LogAttrCommandType, commandType)
}

// StartQuerySpan returns ctx unchanged and a nil span if tracing is disabled.
func StartQuerySpan(ctx context.Context, tracingCollector TracingCollector, queryType string) (context.Context, SpanContext) {
	return startSpan(ctx, tracingCollector, SpanNameQueryHandle, LogAttrQueryType, queryType)
}

func startSpan(ctx context.Context, tracingCollector TracingCollector, name, attrKey, attrVal string) (context.Context, SpanContext) {
	if tracingCollector == nil {
		return ctx, nil
	}

	return tracingCollector.StartSpan(ctx, name, map[string]string{attrKey: attrVal})
}

// FinishSpan completes a span with the operation outcome.
func FinishSpan(tracingCollector TracingCollector, span SpanContext, status string, duration time.Duration, err error) {
	if tracingCollector == nil || span == nil {
		return
	}

	attrs := map[string]string{
		LogAttrStatus:     status,
		LogAttrDurationMS: fmt.Sprintf("%.2f", ToMilliseconds(duration)),
	}

	if err != nil {
		attrs[LogAttrError] = err.Error()
	}

	tracingCollector.FinishSpan(span, status, attrs)
}

// LogInfo prefers the contextual logger, so trace ids end up in the record.
func LogInfo(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.InfoContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Info(msg, args...)
	}
}

// LogWarn prefers the contextual logger.
func LogWarn(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.WarnContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Warn(msg, args...)
	}
}

// LogError prefers the contextual logger.
func LogError(ctx context.Context, logger Logger, contextualLogger ContextualLogger, msg string, args ...any) {
	if contextualLogger != nil {
		contextualLogger.ErrorContext(ctx, msg, args...)
	} else if logger != nil {
		logger.Error(msg, args...)
	}
}

// IsCancellationError checks if an error is due to context cancellation.
func IsCancellationError(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsTimeoutError checks if an error is due to context deadline exceeded.
func IsTimeoutError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsConcurrencyConflictError checks if an error is due to an exhausted optimistic concurrency retry.
func IsConcurrencyConflictError(err error) bool {
	return errors.Is(err, eventstore.ErrConcurrencyConflict) || errors.Is(err, core.ErrConflict)
}

// IsBusinessRuleViolation reports errors that are an expected outcome, not a malfunction.
func IsBusinessRuleViolation(err error) bool {
	for _, businessErr := range []error{
		core.ErrNotFound,
		core.ErrOutOfStock,
		core.ErrAlreadyReturned,
		core.ErrAlreadyBorrowed,
		core.ErrForbidden,
		core.ErrInvalidLoanPeriod,
	} {
		if errors.Is(err, businessErr) {
			return true
		}
	}

	return false
}
