package dashboardstats

import (
	"slices"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ProjectStats implements the loan side of the dashboard. This is a pure function with no side effects.
//
// Query Logic:
//
//	GIVEN: The loan history and the catalog counts
//	WHEN: DashboardStats query is executed at now
//	THEN: ActiveBorrows counts loans not returned, OverdueBooks the active ones past DueAt
//	INCLUDES: RecentActivity, the most recently borrowed loans first, at most query.RecentActivityLimit
func ProjectStats(history core.DomainEvents, query Query, totalBooks int, totalUsers int, now time.Time) Stats {
	limit := query.RecentActivityLimit
	if limit <= 0 {
		limit = DefaultRecentActivityLimit
	}

	loans := core.ProjectLoans(history)

	stats := Stats{
		TotalBooks: totalBooks,
		TotalUsers: totalUsers,
	}

	for _, loan := range loans {
		switch loan.StatusAt(now) {
		case core.LoanStatusBorrowed:
			stats.ActiveBorrows++
		case core.LoanStatusOverdue:
			stats.ActiveBorrows++
			stats.OverdueBooks++
		case core.LoanStatusReturned:
		}
	}

	core.SortByBorrowedAt(loans)
	slices.Reverse(loans)

	stats.RecentActivity = make([]core.LoanView, 0, min(limit, len(loans)))
	for _, loan := range loans[:min(limit, len(loans))] {
		stats.RecentActivity = append(stats.RecentActivity, loan.ViewAt(now))
	}

	return stats
}
