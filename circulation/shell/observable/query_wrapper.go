package observable

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
)

// QueryWrapper instruments any query handler.
type QueryWrapper[Q shell.Query, R any] struct {
	instrumentation

	coreHandler shell.QueryHandler[Q, R]
	queryType   string
}

// NewQueryWrapper creates a new observable wrapper around the core query handler.
func NewQueryWrapper[Q shell.Query, R any](
	coreHandler shell.QueryHandler[Q, R],
	options ...Option,
) (*QueryWrapper[Q, R], error) {

	var zeroQuery Q

	i, err := newInstrumentation(options)
	if err != nil {
		return nil, err
	}

	return &QueryWrapper[Q, R]{
		instrumentation: i,
		coreHandler:     coreHandler,
		queryType:       zeroQuery.QueryType(),
	}, nil
}

// Handle delegates to the core handler and records the outcome.
func (w *QueryWrapper[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	start := time.Now()
	ctx, span := shell.StartQuerySpan(ctx, w.tracingCollector, w.queryType)
	shell.LogInfo(ctx, w.logger, w.contextualLogger, shell.LogMsgQueryStarted, shell.LogAttrQueryType, w.queryType)

	result, err := w.coreHandler.Handle(ctx, query)
	duration := time.Since(start)

	status := shell.StatusSuccess
	switch {
	case err == nil:
	case shell.IsCancellationError(err):
		status = shell.StatusCanceled
	case shell.IsTimeoutError(err):
		status = shell.StatusTimeout
	case shell.IsBusinessRuleViolation(err):
		status = shell.StatusRejected
	default:
		status = shell.StatusError
	}

	shell.RecordQueryMetrics(ctx, w.metricsCollector, w.queryType, status, duration)
	shell.FinishSpan(w.tracingCollector, span, status, duration, err)

	args := []any{
		shell.LogAttrQueryType, w.queryType,
		shell.LogAttrStatus, status,
		shell.LogAttrDurationMS, shell.ToMilliseconds(duration),
	}

	if err != nil {
		shell.LogError(ctx, w.logger, w.contextualLogger, shell.LogMsgQueryFailed, append(args, shell.LogAttrError, err.Error())...)
		return result, err
	}

	shell.LogInfo(ctx, w.logger, w.contextualLogger, shell.LogMsgQueryCompleted, args...)

	return result, nil
}
