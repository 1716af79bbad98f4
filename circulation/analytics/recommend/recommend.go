package recommend

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

const (
	// DefaultHalfLifeDays is the age at which a past loan counts half as much as one borrowed today.
	DefaultHalfLifeDays = 90.0

	// DefaultLimit is the number of recommendations returned unless the caller asks for another.
	DefaultLimit = 5

	day = 24 * time.Hour
)

// Options tune Recommend. Zero values select the defaults.
type Options struct {
	HalfLifeDays float64
	Limit        int
}

// DefaultOptions returns the default half-life and limit.
func DefaultOptions() Options {
	return Options{HalfLifeDays: DefaultHalfLifeDays, Limit: DefaultLimit}
}

func (o Options) withDefaults() Options {
	if o.HalfLifeDays <= 0 {
		o.HalfLifeDays = DefaultHalfLifeDays
	}

	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}

	return o
}

// Recommendation is one ranked title with the attribute(s) that made it match.
type Recommendation struct {
	TitleID         core.TitleIDString
	TitleName       string
	Author          string
	Genre           string
	SimilarityScore float64 // in [0,1]
	Reason          string
}

// Recommend scores every catalog title the patron does not hold right now against the profile
// built from history, the patron's loans in any state. Titles scoring 0 are omitted.
// The result is ordered by score descending, then TitleID ascending, and holds at most opts.Limit entries.
func Recommend(history []core.Loan, titles []catalog.Title, now time.Time, opts Options) []Recommendation {
	opts = opts.withDefaults()
	recommendations := make([]Recommendation, 0)

	byID := catalog.IndexByID(titles)
	p := buildProfile(history, byID, now, opts.HalfLifeDays)

	if len(p.weights) == 0 {
		return recommendations
	}

	held := make(map[core.TitleIDString]bool)
	for _, loan := range core.ActiveLoans(history) {
		held[loan.TitleID] = true
	}

	for _, title := range titles {
		if held[title.ID] {
			continue
		}

		score, matched := p.similarity(featuresOf(title))
		if score <= 0 {
			continue
		}

		recommendations = append(recommendations, Recommendation{
			TitleID:         title.ID,
			TitleName:       title.Name,
			Author:          title.Author,
			Genre:           title.Genre,
			SimilarityScore: score,
			Reason:          p.reason(matched),
		})
	}

	slices.SortFunc(recommendations, func(a, b Recommendation) int {
		if a.SimilarityScore != b.SimilarityScore {
			if a.SimilarityScore > b.SimilarityScore {
				return -1
			}

			return 1
		}

		return strings.Compare(a.TitleID, b.TitleID)
	})

	if len(recommendations) > opts.Limit {
		recommendations = recommendations[:opts.Limit]
	}

	return recommendations
}

// decay is exp(-ln2 * elapsedDays / halfLifeDays), 1 for loans borrowed at or after now.
func decay(borrowedAt time.Time, now time.Time, halfLifeDays float64) float64 {
	elapsedDays := max(now.Sub(borrowedAt), 0).Hours() / 24

	return math.Exp(-math.Ln2 * elapsedDays / halfLifeDays)
}

// reads is "1 previous read" or "n previous reads".
func reads(n int) string {
	if n == 1 {
		return "1 previous read"
	}

	return fmt.Sprintf("%d previous reads", n)
}
