package shell

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// QueriesEvents is the read side of an event store engine.
type QueriesEvents interface {
	Query(ctx context.Context, filter eventstore.Filter) (
		eventstore.StorableEvents,
		eventstore.MaxSequenceNumberUint,
		error,
	)
}

// EventStore is satisfied by memengine.EventStore and postgresengine.EventStore.
type EventStore interface {
	QueriesEvents
	Append(
		ctx context.Context,
		filter eventstore.Filter,
		expectedMaxSequenceNumber eventstore.MaxSequenceNumberUint,
		event eventstore.StorableEvent,
		additionalEvents ...eventstore.StorableEvent,
	) error
}

// Clock returns the current time. Handlers take one so tests can fix "now".
type Clock func() time.Time

// SystemClock returns time.Now in UTC.
func SystemClock() Clock {
	return func() time.Time {
		return time.Now().UTC()
	}
}

// Command represents the contract for all command types.
// The CommandType method enables polymorphic handling and observability instrumentation.
type Command interface {
	CommandType() string
}

// CommandResult is implemented by every result type that embeds HandlerResult.
type CommandResult interface {
	Execution() HandlerResult
}

// CommandHandler processes a command and returns its business result together with the
// execution metadata of the retry loop.
type CommandHandler[C Command, R CommandResult] interface {
	Handle(ctx context.Context, command C) (R, error)
}

// Query represents the contract for all query types.
type Query interface {
	QueryType() string
}

// QueryHandler retrieves events and projects them into R.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
