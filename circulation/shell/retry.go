package shell

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3

	errorTypeNone                    = "none"
	errorTypeConcurrencyConflict     = "concurrency_conflict"
	errorTypeContextCanceled         = "context_canceled"
	errorTypeContextDeadlineExceeded = "context_deadline_exceeded"
	errorTypeOther                   = "other"
)

var (
	// ErrNilMetricsCollector is returned when a nil metrics collector is provided to WithRetryMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrEmptyCommandType is returned when an empty command type is provided to WithRetryMetrics.
	ErrEmptyCommandType = errors.New("command type must not be empty")

	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc is one Query, Decide and Append round of a command handler.
type RetryableFunc func(ctx context.Context) error

// RetryMetrics describes how a retry loop went.
type RetryMetrics struct {
	Attempts         int
	TotalDelay       time.Duration
	LastErrorType    string
	RetriesExhausted bool
}

type retryConfig struct {
	maxAttempts      int
	baseDelay        time.Duration
	jitterFactor     float64
	metricsCollector MetricsCollector
	commandType      string
}

// RetryWithExponentialBackoff runs fn until it succeeds, fails with anything other than
// eventstore.ErrConcurrencyConflict, or runs out of attempts. With the defaults the waits before
// attempts two to six are roughly 10, 20, 40, 80 and 160 ms, each stretched by up to 30% jitter.
// Cancelling ctx during a wait returns ctx.Err().
func RetryWithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...RetryOption,
) (RetryMetrics, error) {

	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return RetryMetrics{}, err
		}
	}

	metrics := RetryMetrics{LastErrorType: errorTypeNone}
	var err error

	for metrics.Attempts < config.maxAttempts {
		if metrics.Attempts > 0 {
			waited, waitErr := config.wait(ctx, metrics.Attempts)
			metrics.TotalDelay += waited

			if waitErr != nil {
				metrics.LastErrorType = errorTypeOf(waitErr)
				return metrics, waitErr
			}
		}

		metrics.Attempts++
		err = fn(ctx)
		metrics.LastErrorType = errorTypeOf(err)

		if !isRetryableError(err) {
			return metrics, err
		}

		if metrics.Attempts < config.maxAttempts {
			eventstore.IncrementCounter(ctx, config.metricsCollector, CommandHandlerRetriesMetric,
				BuildRetryLabels(config.commandType, metrics.Attempts, metrics.LastErrorType))
		}
	}

	metrics.RetriesExhausted = true
	eventstore.IncrementCounter(ctx, config.metricsCollector, CommandHandlerMaxRetriesReachedMetric, map[string]string{
		LogAttrCommandType: config.commandType,
		"final_error_type": metrics.LastErrorType,
	})

	return metrics, err
}

// wait sleeps before the retry that follows the given number of failed attempts.
// It returns how long it actually waited, zero if ctx ended first.
func (c *retryConfig) wait(ctx context.Context, failedAttempts int) (time.Duration, error) {
	delay := c.backoff(failedAttempts)

	eventstore.RecordDuration(ctx, c.metricsCollector, CommandHandlerRetryDelayMetric, delay, map[string]string{
		LogAttrCommandType: c.commandType,
		"attempt_number":   strconv.Itoa(failedAttempts),
	})

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return delay, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// backoff doubles baseDelay per failed attempt and adds up to jitterFactor of it on top.
func (c *retryConfig) backoff(failedAttempts int) time.Duration {
	delay := c.baseDelay << (failedAttempts - 1)
	jitter := time.Duration(rand.Float64() * c.jitterFactor * float64(delay)) //nolint:gosec // jitter needs no crypto rand

	return delay + jitter
}

// isRetryableError is true only for lost append races. Timeouts are not retried.
func isRetryableError(err error) bool {
	return errors.Is(err, eventstore.ErrConcurrencyConflict)
}

func errorTypeOf(err error) string {
	switch {
	case err == nil:
		return errorTypeNone
	case errors.Is(err, eventstore.ErrConcurrencyConflict):
		return errorTypeConcurrencyConflict
	case errors.Is(err, context.Canceled):
		return errorTypeContextCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return errorTypeContextDeadlineExceeded
	default:
		return errorTypeOther
	}
}

// RetryOption tunes RetryWithExponentialBackoff.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of attempts, including the first one.
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the wait before the second attempt, later waits double it each time.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter as a fraction of the backoff delay, 0.0 to 1.0.
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

// WithRetryMetrics sets the metrics collector for retry instrumentation, labeled with commandType.
func WithRetryMetrics(collector MetricsCollector, commandType string) RetryOption {
	return func(config *retryConfig) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		if commandType == "" {
			return ErrEmptyCommandType
		}

		config.metricsCollector = collector
		config.commandType = commandType

		return nil
	}
}

// RetrySettings carries the configured retry parameters into command handlers.
type RetrySettings struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Options converts the settings, zero fields keep the defaults.
func (s RetrySettings) Options() []RetryOption {
	options := make([]RetryOption, 0, 2)

	if s.MaxAttempts > 0 {
		options = append(options, WithMaxAttempts(s.MaxAttempts))
	}

	if s.BaseDelay > 0 {
		options = append(options, WithBaseDelay(s.BaseDelay))
	}

	return options
}
