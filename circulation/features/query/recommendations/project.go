package recommendations

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ProjectRecommendations replays the patron's loans and ranks titles against them.
// This is a pure function with no side effects.
func ProjectRecommendations(
	history core.DomainEvents,
	titles []catalog.Title,
	query Query,
	now time.Time,
	opts recommend.Options,
) Recommendations {

	patronID := query.PatronID.String()

	loans := make([]core.Loan, 0)
	for _, loan := range core.ProjectLoans(history) {
		if loan.PatronID == patronID {
			loans = append(loans, loan)
		}
	}

	if query.Limit > 0 {
		opts.Limit = query.Limit
	}

	return Recommendations{
		PatronID: patronID,
		Items:    recommend.Recommend(loans, titles, now, opts),
	}
}
