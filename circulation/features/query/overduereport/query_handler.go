package overduereport

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// QueryHandler runs Query -> Unmarshal -> Project. Observability is added by observable.QueryWrapper.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	catalog    catalog.Catalog
	finePolicy core.FinePolicy
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

// WithFinePolicy replaces core.DefaultFinePolicy. It must be the policy the return handler charges.
func WithFinePolicy(policy core.FinePolicy) Option {
	return func(h *QueryHandler) {
		h.finePolicy = policy
	}
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(eventStore shell.QueriesEvents, titles catalog.Catalog, opts ...Option) QueryHandler {
	h := QueryHandler{
		eventStore: eventStore,
		catalog:    titles,
		finePolicy: core.DefaultFinePolicy(),
		clock:      shell.SystemClock(),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Handle queries all loan events with eventual consistency and projects the overdue loans.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (Report, error) {
	ctx = eventstore.WithEventualConsistency(ctx)

	history, _, err := shell.QueryDomainEvents(ctx, h.eventStore, shell.AllLoansFilter(time.Time{}))
	if err != nil {
		return Report{}, err
	}

	titles, err := h.catalog.Titles(ctx)
	if err != nil {
		return Report{}, err
	}

	return ProjectOverdueReport(history, catalog.IndexByID(titles), h.finePolicy, h.clock()), nil
}
