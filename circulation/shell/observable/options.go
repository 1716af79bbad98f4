package observable

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
)

type instrumentation struct {
	metricsCollector shell.MetricsCollector
	tracingCollector shell.TracingCollector
	contextualLogger shell.ContextualLogger
	logger           shell.Logger
}

// Option configures the instrumentation of a CommandWrapper or QueryWrapper.
type Option func(*instrumentation) error

// WithMetrics sets the metrics collector.
func WithMetrics(collector shell.MetricsCollector) Option {
	return func(i *instrumentation) error {
		i.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector.
func WithTracing(collector shell.TracingCollector) Option {
	return func(i *instrumentation) error {
		i.tracingCollector = collector
		return nil
	}
}

// WithContextualLogging sets the contextual logger, preferred over WithLogging.
func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(i *instrumentation) error {
		i.contextualLogger = logger
		return nil
	}
}

// WithLogging sets the basic logger.
func WithLogging(logger shell.Logger) Option {
	return func(i *instrumentation) error {
		i.logger = logger
		return nil
	}
}

func newInstrumentation(options []Option) (instrumentation, error) {
	i := instrumentation{}

	for _, option := range options {
		if err := option(&i); err != nil {
			return instrumentation{}, err
		}
	}

	return i, nil
}
