package postgresengine

import (
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// Option configures an EventStore when it is built. An Option returning an error aborts construction.
type Option func(*EventStore) error

func set(apply func(es *EventStore)) Option {
	return func(es *EventStore) error {
		apply(es)
		return nil
	}
}

// WithTableName stores the loan ledger in tableName instead of "events".
func WithTableName(tableName string) Option {
	if tableName == "" {
		return func(*EventStore) error { return eventstore.ErrEmptyEventsTableName }
	}

	return set(func(es *EventStore) { es.eventTableName = tableName })
}

// WithLogger attaches a logger without context support.
// SQL statements are logged at debug, event counts and conflicts at info, failures at error.
func WithLogger(logger eventstore.Logger) Option {
	return set(func(es *EventStore) { es.logger = logger })
}

// WithContextualLogger attaches a logger that sees the request context. It wins over WithLogger.
func WithContextualLogger(logger eventstore.ContextualLogger) Option {
	return set(func(es *EventStore) { es.contextualLogger = logger })
}

// WithMetrics records durations, event counts, conflicts and database errors.
func WithMetrics(collector eventstore.MetricsCollector) Option {
	return set(func(es *EventStore) { es.metricsCollector = collector })
}

// WithTracing opens one span per Query and Append.
func WithTracing(collector eventstore.TracingCollector) Option {
	return set(func(es *EventStore) { es.tracingCollector = collector })
}
