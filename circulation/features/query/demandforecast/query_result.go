package demandforecast

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/forecast"
)

// DemandForecast represents the query result, highest predicted demand first.
type DemandForecast struct {
	Forecasts    []forecast.TitleForecast
	WindowWeeks  int
	HorizonWeeks int
	AsOf         time.Time
}
