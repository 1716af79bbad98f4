package forecast

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

const (
	DefaultWindowWeeks  = 8
	DefaultHorizonWeeks = 4
	DefaultLimit        = 20

	// confidencePrior is the sample count at which the size factor of the confidence reaches 0.5.
	confidencePrior = 5.0

	week = 7 * 24 * time.Hour
)

// Options tune Forecast. Zero values select the defaults.
type Options struct {
	WindowWeeks  int
	HorizonWeeks int
	Limit        int
}

// DefaultOptions returns an 8 week window projected 4 weeks ahead, top 20 titles.
func DefaultOptions() Options {
	return Options{WindowWeeks: DefaultWindowWeeks, HorizonWeeks: DefaultHorizonWeeks, Limit: DefaultLimit}
}

func (o Options) withDefaults() Options {
	if o.WindowWeeks <= 0 {
		o.WindowWeeks = DefaultWindowWeeks
	}

	if o.HorizonWeeks <= 0 {
		o.HorizonWeeks = DefaultHorizonWeeks
	}

	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}

	return o
}

// TitleForecast is the predicted demand of one title over the horizon.
type TitleForecast struct {
	TitleID         core.TitleIDString
	TitleName       string
	PredictedDemand float64 // loans expected over the horizon, never negative
	Confidence      float64 // in [0,1]
	SampleCount     int     // loans within the window
	Trend           float64 // loans per week gained or lost each week
	WeeklyLoans     []int   // oldest week first
}

// Rounded is PredictedDemand rounded half away from zero, for display.
func (f TitleForecast) Rounded() int64 {
	return int64(math.Round(f.PredictedDemand))
}

// Forecast buckets the loans borrowed within the trailing window ending at now into weeks,
// per title, and projects the linear trend HorizonWeeks ahead. Every catalog title is scored,
// titles only known from loans are scored too. The result is ordered by PredictedDemand descending,
// then TitleID ascending, and holds at most opts.Limit entries.
func Forecast(loans []core.Loan, titles []catalog.Title, now time.Time, opts Options) []TitleForecast {
	opts = opts.withDefaults()

	windowStart := now.Add(-time.Duration(opts.WindowWeeks) * week)
	buckets := make(map[core.TitleIDString][]int)

	bucketsOf := func(titleID core.TitleIDString) []int {
		if _, ok := buckets[titleID]; !ok {
			buckets[titleID] = make([]int, opts.WindowWeeks)
		}

		return buckets[titleID]
	}

	for _, title := range titles {
		bucketsOf(title.ID)
	}

	for _, loan := range loans {
		if loan.BorrowedAt.Before(windowStart) || loan.BorrowedAt.After(now) {
			continue
		}

		i := min(int(loan.BorrowedAt.Sub(windowStart)/week), opts.WindowWeeks-1)
		bucketsOf(loan.TitleID)[i]++
	}

	names := catalog.IndexByID(titles)
	forecasts := make([]TitleForecast, 0, len(buckets))

	for titleID, weekly := range buckets {
		slope, intercept := linearTrend(weekly)

		projected := 0.0
		for x := opts.WindowWeeks; x < opts.WindowWeeks+opts.HorizonWeeks; x++ {
			projected += intercept + slope*float64(x)
		}

		samples := sum(weekly)

		forecasts = append(forecasts, TitleForecast{
			TitleID:         titleID,
			TitleName:       names[titleID].Name,
			PredictedDemand: max(projected, 0),
			Confidence:      Confidence(samples, opts.WindowWeeks, variance(weekly)),
			SampleCount:     samples,
			Trend:           slope,
			WeeklyLoans:     weekly,
		})
	}

	slices.SortFunc(forecasts, func(a, b TitleForecast) int {
		if a.PredictedDemand != b.PredictedDemand {
			if a.PredictedDemand > b.PredictedDemand {
				return -1
			}

			return 1
		}

		return strings.Compare(a.TitleID, b.TitleID)
	})

	if len(forecasts) > opts.Limit {
		forecasts = forecasts[:opts.Limit]
	}

	return forecasts
}

// Confidence is n/(n+5) * 1/(1 + variance/(1+mean²)) with mean = n/windowWeeks, 0 without samples.
// At a fixed variance it never decreases when n grows.
func Confidence(sampleCount int, windowWeeks int, variance float64) float64 {
	if sampleCount <= 0 || windowWeeks <= 0 {
		return 0
	}

	n := float64(sampleCount)
	mean := n / float64(windowWeeks)
	sizeFactor := n / (n + confidencePrior)
	stabilityFactor := 1 / (1 + max(variance, 0)/(1+mean*mean))

	return sizeFactor * stabilityFactor
}

// linearTrend fits y = intercept + slope*x by least squares over x = 0..len(ys)-1.
func linearTrend(ys []int) (slope float64, intercept float64) {
	n := float64(len(ys))
	if n == 0 {
		return 0, 0
	}

	meanX := (n - 1) / 2
	meanY := float64(sum(ys)) / n

	var covariance, varianceX float64
	for i, y := range ys {
		dx := float64(i) - meanX
		covariance += dx * (float64(y) - meanY)
		varianceX += dx * dx
	}

	if varianceX == 0 {
		return 0, meanY
	}

	slope = covariance / varianceX

	return slope, meanY - slope*meanX
}

// variance is the population variance.
func variance(ys []int) float64 {
	if len(ys) == 0 {
		return 0
	}

	mean := float64(sum(ys)) / float64(len(ys))

	total := 0.0
	for _, y := range ys {
		d := float64(y) - mean
		total += d * d
	}

	return total / float64(len(ys))
}

func sum(ys []int) int {
	total := 0
	for _, y := range ys {
		total += y
	}

	return total
}
