package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// CommandWrapper instruments any command handler. Business rule rejections (out of stock,
// already returned, ...) are counted as "rejected" and logged at warn level, everything
// else that fails is logged as an error.
type CommandWrapper[C shell.Command, R shell.CommandResult] struct {
	instrumentation

	coreHandler shell.CommandHandler[C, R]
	commandType string
}

// NewCommandWrapper creates a new observable wrapper around the core command handler.
func NewCommandWrapper[C shell.Command, R shell.CommandResult](
	coreHandler shell.CommandHandler[C, R],
	options ...Option,
) (*CommandWrapper[C, R], error) {

	var zeroCommand C

	i, err := newInstrumentation(options)
	if err != nil {
		return nil, err
	}

	return &CommandWrapper[C, R]{
		instrumentation: i,
		coreHandler:     coreHandler,
		commandType:     zeroCommand.CommandType(),
	}, nil
}

// Handle delegates to the core handler and records the outcome.
func (w *CommandWrapper[C, R]) Handle(ctx context.Context, command C) (R, error) {
	start := time.Now()
	ctx, span := shell.StartCommandSpan(ctx, w.tracingCollector, w.commandType)
	shell.LogInfo(ctx, w.logger, w.contextualLogger, shell.LogMsgCommandStarted, shell.LogAttrCommandType, w.commandType)

	result, err := w.coreHandler.Handle(ctx, command)
	duration := time.Since(start)

	execution := result.Execution()
	w.recordRetryMetrics(ctx, execution)

	status := shell.CommandStatusOf(err)
	if err == nil && execution.Idempotent {
		status = shell.StatusIdempotent
	}

	shell.RecordCommandMetrics(ctx, w.metricsCollector, w.commandType, status, duration)
	shell.FinishSpan(w.tracingCollector, span, status, duration, err)
	w.log(ctx, status, execution, duration, err)

	return result, err
}

func (w *CommandWrapper[C, R]) log(
	ctx context.Context,
	status string,
	execution shell.HandlerResult,
	duration time.Duration,
	err error,
) {

	args := []any{
		shell.LogAttrCommandType, w.commandType,
		shell.LogAttrBusinessOutcome, status,
		shell.LogAttrRetryAttempts, execution.RetryAttempts,
		shell.LogAttrDurationMS, shell.ToMilliseconds(duration),
	}

	switch status {
	case shell.StatusSuccess, shell.StatusIdempotent:
		shell.LogInfo(ctx, w.logger, w.contextualLogger, shell.LogMsgCommandCompleted, args...)
	case shell.StatusRejected:
		shell.LogWarn(ctx, w.logger, w.contextualLogger, shell.LogMsgCommandRejected, append(args, shell.LogAttrError, err.Error())...)
	default:
		shell.LogError(ctx, w.logger, w.contextualLogger, shell.LogMsgCommandFailed, append(args, shell.LogAttrError, err.Error())...)
	}
}

// recordRetryMetrics records the retry summary of one Handle call.
func (w *CommandWrapper[C, R]) recordRetryMetrics(ctx context.Context, execution shell.HandlerResult) {
	if w.metricsCollector == nil {
		return
	}

	if execution.RetryAttempts > 1 {
		eventstore.IncrementCounter(ctx, w.metricsCollector, shell.CommandHandlerRetriesMetric,
			shell.BuildRetryLabels(w.commandType, execution.RetryAttempts-1, execution.LastErrorType))

		eventstore.RecordDuration(ctx, w.metricsCollector, shell.CommandHandlerRetryDelayMetric, execution.TotalRetryDelay,
			map[string]string{shell.LogAttrCommandType: w.commandType})
	}

	if execution.RetriesExhausted {
		eventstore.IncrementCounter(ctx, w.metricsCollector, shell.CommandHandlerMaxRetriesReachedMetric,
			map[string]string{shell.LogAttrCommandType: w.commandType})
	}
}
