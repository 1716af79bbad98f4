package recommendations

import (
	"context"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// QueryHandler runs Query -> Unmarshal -> Project. Observability is added by observable.QueryWrapper.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	catalog    catalog.Catalog
	patrons    catalog.PatronDirectory
	options    recommend.Options
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

// WithRecommendOptions replaces recommend.DefaultOptions.
func WithRecommendOptions(opts recommend.Options) Option {
	return func(h *QueryHandler) {
		h.options = opts
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
		options:    recommend.DefaultOptions(),
		clock:      shell.SystemClock(),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Handle reads the patron's loans with eventual consistency and ranks the catalog.
// A patron missing from the directory fails with core.ErrNotFound.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Recommendations, error) {
	if _, err := h.patrons.PatronByID(ctx, query.PatronID); err != nil {
		return Recommendations{}, err
	}

	ctx = eventstore.WithEventualConsistency(ctx)

	history, _, err := shell.QueryDomainEvents(ctx, h.eventStore, shell.PatronLoansFilter(query.PatronID.String()))
	if err != nil {
		return Recommendations{}, err
	}

	titles, err := h.catalog.Titles(ctx)
	if err != nil {
		return Recommendations{}, err
	}

	return ProjectRecommendations(history, titles, query, h.clock(), h.options), nil
}
