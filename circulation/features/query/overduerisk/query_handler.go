package overduerisk

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/risk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// QueryHandler runs Query -> Unmarshal -> Project. Observability is added by observable.QueryWrapper.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	options    risk.Options
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

// WithRiskOptions replaces risk.DefaultOptions.
func WithRiskOptions(opts risk.Options) Option {
	return func(h *QueryHandler) {
		h.options = opts
	}
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(eventStore shell.QueriesEvents, opts ...Option) QueryHandler {
	h := QueryHandler{
		eventStore: eventStore,
		options:    risk.DefaultOptions(),
		clock:      shell.SystemClock(),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Handle reads all loan events with eventual consistency.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (OverdueRisk, error) {
	ctx = eventstore.WithEventualConsistency(ctx)

	history, _, err := shell.QueryDomainEvents(ctx, h.eventStore, shell.AllLoansFilter(time.Time{}))
	if err != nil {
		return OverdueRisk{}, err
	}

	return ProjectOverdueRisk(history, h.clock(), h.options), nil
}
