package dashboardstats

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// QueryHandler runs Query -> Unmarshal -> Project. Observability is added by observable.QueryWrapper.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	catalog    catalog.Catalog
	patrons    catalog.PatronDirectory
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

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(
	eventStore shell.QueriesEvents,
	titles catalog.Catalog,
	patrons catalog.PatronDirectory,
	opts ...Option,
) QueryHandler {

	h := QueryHandler{
		eventStore: eventStore,
		catalog:    titles,
		patrons:    patrons,
		clock:      shell.SystemClock(),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Handle reads the catalog counts and projects the loan counters with eventual consistency.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Stats, error) {
	totalBooks, err := h.catalog.CountTitles(ctx)
	if err != nil {
		return Stats{}, err
	}

	totalUsers, err := h.patrons.CountMembers(ctx)
	if err != nil {
		return Stats{}, err
	}

	ctx = eventstore.WithEventualConsistency(ctx)

	history, _, err := shell.QueryDomainEvents(ctx, h.eventStore, shell.AllLoansFilter(time.Time{}))
	if err != nil {
		return Stats{}, err
	}

	return ProjectStats(history, query, totalBooks, totalUsers, h.clock()), nil
}
