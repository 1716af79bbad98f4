package desk

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/forecast"
	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/risk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell/observable"
)

const (
	DefaultRequestTimeout  = 5 * time.Second
	DefaultAnalyticsMaxAge = 5 * time.Minute
)

type settings struct {
	clock            shell.Clock
	requestTimeout   time.Duration
	analyticsMaxAge  time.Duration
	finePolicy       core.FinePolicy
	loanPolicy       core.LoanPolicy
	retryOptions     []shell.RetryOption
	recommendOptions recommend.Options
	forecastOptions  forecast.Options
	riskOptions      risk.Options
	instrumentation  []observable.Option
	logger           shell.Logger
	contextualLogger shell.ContextualLogger
}

func defaultSettings() settings {
	return settings{
		clock:            shell.SystemClock(),
		requestTimeout:   DefaultRequestTimeout,
		analyticsMaxAge:  DefaultAnalyticsMaxAge,
		finePolicy:       core.DefaultFinePolicy(),
		loanPolicy:       core.DefaultLoanPolicy(),
		recommendOptions: recommend.DefaultOptions(),
		forecastOptions:  forecast.DefaultOptions(),
		riskOptions:      risk.DefaultOptions(),
	}
}

// Option configures a Desk.
type Option func(*settings) error

// WithClock replaces shell.SystemClock for every handler of the desk.
func WithClock(clock shell.Clock) Option {
	return func(s *settings) error {
		s.clock = clock
		return nil
	}
}

// WithRequestTimeout bounds every desk call. 0 disables the bound.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *settings) error {
		if timeout < 0 {
			return ErrInvalidOption
		}

		s.requestTimeout = timeout
		return nil
	}
}

// WithAnalyticsMaxAge sets how long a computed forecast or risk result is served. 0 disables the cache.
func WithAnalyticsMaxAge(maxAge time.Duration) Option {
	return func(s *settings) error {
		if maxAge < 0 {
			return ErrInvalidOption
		}

		s.analyticsMaxAge = maxAge
		return nil
	}
}

// WithFinePolicy sets the policy charged on return and previewed in the overdue report.
func WithFinePolicy(policy core.FinePolicy) Option {
	return func(s *settings) error {
		s.finePolicy = policy
		return nil
	}
}

// WithLoanPolicy sets the default and maximum loan period.
func WithLoanPolicy(policy core.LoanPolicy) Option {
	return func(s *settings) error {
		s.loanPolicy = policy
		return nil
	}
}

// WithRetryOptions configures the conflict retry of borrow and return.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(s *settings) error {
		s.retryOptions = opts
		return nil
	}
}

// WithRecommendOptions replaces recommend.DefaultOptions.
func WithRecommendOptions(opts recommend.Options) Option {
	return func(s *settings) error {
		s.recommendOptions = opts
		return nil
	}
}

// WithForecastOptions replaces forecast.DefaultOptions.
func WithForecastOptions(opts forecast.Options) Option {
	return func(s *settings) error {
		s.forecastOptions = opts
		return nil
	}
}

// WithRiskOptions replaces risk.DefaultOptions.
func WithRiskOptions(opts risk.Options) Option {
	return func(s *settings) error {
		s.riskOptions = opts
		return nil
	}
}

// WithInstrumentation wraps every handler in an observable wrapper configured with opts.
func WithInstrumentation(opts ...observable.Option) Option {
	return func(s *settings) error {
		s.instrumentation = opts
		return nil
	}
}

// WithLogging sets the logger for analytics refreshes.
func WithLogging(logger shell.Logger) Option {
	return func(s *settings) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogging sets the contextual logger for analytics refreshes, preferred over WithLogging.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(s *settings) error {
		s.contextualLogger = logger
		return nil
	}
}
