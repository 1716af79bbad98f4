package loanhistory

import (
	"slices"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ProjectLoanHistory implements the query logic for the loan history.
// This is a pure function with no side effects.
//
// Query Logic:
//
//	GIVEN: A patron with PatronID, or none for all patrons
//	WHEN: LoanHistory query is executed at now
//	THEN: LoanHistory is returned, ordered by BorrowedAt descending then LoanID descending
//	INCLUDES: active and returned loans with their status at now
func ProjectLoanHistory(history core.DomainEvents, query Query, now time.Time) LoanHistory {
	patronID := query.PatronID.String()

	loans := core.ProjectLoans(history)
	core.SortByBorrowedAt(loans)
	slices.Reverse(loans)

	result := LoanHistory{Loans: make([]core.LoanView, 0, len(loans))}

	for _, loan := range loans {
		if !query.AllPatrons() && loan.PatronID != patronID {
			continue
		}

		result.Loans = append(result.Loans, loan.ViewAt(now))

		if loan.IsActive() {
			result.Active++
		} else {
			result.Returned++
		}
	}

	result.Count = len(result.Loans)

	return result
}
