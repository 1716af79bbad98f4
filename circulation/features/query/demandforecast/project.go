package demandforecast

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/forecast"
	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ProjectDemandForecast replays the loans and forecasts their demand.
// This is a pure function with no side effects.
func ProjectDemandForecast(history core.DomainEvents, titles []catalog.Title, now time.Time, opts forecast.Options) DemandForecast {
	return DemandForecast{
		Forecasts:    forecast.Forecast(core.ProjectLoans(history), titles, now, opts),
		WindowWeeks:  opts.WindowWeeks,
		HorizonWeeks: opts.HorizonWeeks,
		AsOf:         now,
	}
}
