package activeloansbypatron

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ProjectActiveLoans implements the query logic to determine the loans a patron currently holds.
// This is a pure function with no side effects.
//
// Query Logic:
//
//	GIVEN: A patron with PatronID
//	WHEN: ActiveLoansByPatron query is executed at now
//	THEN: ActiveLoans is returned, ordered by BorrowedAt then LoanID
//	INCLUDES: status overdue if now > DueAt, else borrowed
//	EXCLUDES: returned loans, loans of other patrons
func ProjectActiveLoans(history core.DomainEvents, query Query, now time.Time) ActiveLoans {
	patronID := query.PatronID.String()

	active := core.ActiveLoans(core.ProjectLoans(history))
	core.SortByBorrowedAt(active)

	views := make([]core.LoanView, 0, len(active))
	for _, loan := range active {
		if loan.PatronID != patronID {
			continue
		}

		views = append(views, loan.ViewAt(now))
	}

	return ActiveLoans{
		PatronID: patronID,
		Loans:    views,
		Count:    len(views),
	}
}
