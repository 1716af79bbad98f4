package activeloansbypatron

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// QueryHandler runs Query -> Unmarshal -> Project. Observability is added by observable.QueryWrapper.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	clock      shell.Clock
}

// Option configures a QueryHandler.
type Option func(*QueryHandler)

// WithClock replaces shell.SystemClock, the status of a loan is derived at the time it returns.
func WithClock(clock shell.Clock) Option {
	return func(h *QueryHandler) {
		h.clock = clock
	}
}

// NewQueryHandler creates a new QueryHandler with the provided event store.
func NewQueryHandler(eventStore shell.QueriesEvents, opts ...Option) QueryHandler {
	h := QueryHandler{
		eventStore: eventStore,
		clock:      shell.SystemClock(),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Handle queries the loan events of the patron and projects the active loans.
func (h QueryHandler) Handle(ctx context.Context, query Query) (ActiveLoans, error) {
	ctx = eventstore.WithStrongConsistency(ctx)

	history, _, err := shell.QueryDomainEvents(ctx, h.eventStore, shell.PatronLoansFilter(query.PatronID.String()))
	if err != nil {
		return ActiveLoans{}, err
	}

	return ProjectActiveLoans(history, query, h.clock()), nil
}
