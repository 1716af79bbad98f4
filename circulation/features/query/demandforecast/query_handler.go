package demandforecast

import (
	"context"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/forecast"
	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/shell"
	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// QueryHandler runs Query -> Unmarshal -> Project. Observability is added by observable.QueryWrapper.
type QueryHandler struct {
	eventStore shell.QueriesEvents
	catalog    catalog.Catalog
	options    forecast.Options
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

// WithForecastOptions replaces forecast.DefaultOptions. Zero fields keep their defaults.
func WithForecastOptions(opts forecast.Options) Option {
	return func(h *QueryHandler) {
		if opts.WindowWeeks > 0 {
			h.options.WindowWeeks = opts.WindowWeeks
		}

		if opts.HorizonWeeks > 0 {
			h.options.HorizonWeeks = opts.HorizonWeeks
		}

		if opts.Limit > 0 {
			h.options.Limit = opts.Limit
		}
	}
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(eventStore shell.QueriesEvents, titles catalog.Catalog, opts ...Option) QueryHandler {
	h := QueryHandler{
		eventStore: eventStore,
		catalog:    titles,
		options:    forecast.DefaultOptions(),
		clock:      shell.SystemClock(),
	}

	for _, opt := range opts {
		opt(&h)
	}

	return h
}

// Handle reads only the loan events inside the window, with eventual consistency.
func (h QueryHandler) Handle(ctx context.Context, _ Query) (DemandForecast, error) {
	now := h.clock()
	since := now.Add(-time.Duration(h.options.WindowWeeks) * 7 * 24 * time.Hour)

	ctx = eventstore.WithEventualConsistency(ctx)

	history, _, err := shell.QueryDomainEvents(ctx, h.eventStore, shell.AllLoansFilter(since))
	if err != nil {
		return DemandForecast{}, err
	}

	titles, err := h.catalog.Titles(ctx)
	if err != nil {
		return DemandForecast{}, err
	}

	return ProjectDemandForecast(history, titles, now, h.options), nil
}
