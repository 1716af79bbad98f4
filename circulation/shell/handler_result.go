package shell

import "time"

// HandlerResult represents the execution outcome of a command handler.
// It captures the business outcome (idempotency) and the retry metadata
// without coupling the handler to specific observability implementations.
type HandlerResult struct {
	// Idempotent indicates the command had already been applied, nothing was appended.
	Idempotent bool

	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in backoff delays.
	TotalRetryDelay time.Duration

	// LastErrorType describes the final error, "none" on success.
	LastErrorType string

	// RetriesExhausted is true only if all attempts failed with a retryable error.
	RetriesExhausted bool
}

// Execution makes every result type embedding HandlerResult a CommandResult.
func (r HandlerResult) Execution() HandlerResult {
	return r
}

// NewSuccessResult creates a HandlerResult for operations that appended an event.
func NewSuccessResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, false)
}

// NewIdempotentResult creates a HandlerResult for operations that had already been applied.
func NewIdempotentResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, true)
}

// NewErrorResult creates a HandlerResult that still reports the retry metadata of a failed operation.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return newHandlerResult(retryMetrics, false)
}

func newHandlerResult(retryMetrics RetryMetrics, idempotent bool) HandlerResult {
	return HandlerResult{
		Idempotent:       idempotent,
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
