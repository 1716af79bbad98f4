package loanhistory

import (
	"context"
	"time"

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

// WithClock replaces shell.SystemClock.
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

// Handle reads the patron's own history with strong consistency and the full ledger with eventual consistency.
func (h QueryHandler) Handle(ctx context.Context, query Query) (LoanHistory, error) {
	filter := shell.AllLoansFilter(time.Time{})
	ctx = eventstore.WithEventualConsistency(ctx)

	if !query.AllPatrons() {
		filter = shell.PatronLoansFilter(query.PatronID.String())
		ctx = eventstore.WithStrongConsistency(ctx)
	}

	history, _, err := shell.QueryDomainEvents(ctx, h.eventStore, filter)
	if err != nil {
		return LoanHistory{}, err
	}

	return ProjectLoanHistory(history, query, h.clock()), nil
}
