package overduereport

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ProjectOverdueReport implements the query logic of the overdue report.
// This is a pure function with no side effects.
//
// Query Logic:
//
//	GIVEN: The loan history and the catalog titles by id
//	WHEN: OverdueReport query is executed at now
//	THEN: Report is returned with one Entry per active loan with now > DueAt
//	INCLUDES: OverdueDays = floor((now - DueAt) / 24h), CalculatedFine = policy.Fine(DueAt, now)
//	EXCLUDES: returned loans, loans not yet due
func ProjectOverdueReport(
	history core.DomainEvents,
	titles map[core.TitleIDString]catalog.Title,
	policy core.FinePolicy,
	now time.Time,
) Report {

	report := Report{
		Entries:    make([]Entry, 0),
		TotalFines: decimal.Zero,
		AsOf:       now,
	}

	for _, loan := range core.ActiveLoans(core.ProjectLoans(history)) {
		if loan.StatusAt(now) != core.LoanStatusOverdue {
			continue
		}

		fine := policy.Fine(loan.DueAt, now)

		report.Entries = append(report.Entries, Entry{
			LoanID:         loan.LoanID,
			TitleID:        loan.TitleID,
			TitleName:      titles[loan.TitleID].Name,
			PatronID:       loan.PatronID,
			BorrowedAt:     loan.BorrowedAt,
			DueAt:          loan.DueAt,
			OverdueDays:    core.OverdueDays(loan.DueAt, now),
			CalculatedFine: fine,
		})

		report.TotalFines = report.TotalFines.Add(fine)
	}

	slices.SortFunc(report.Entries, func(a, b Entry) int {
		if c := a.DueAt.Compare(b.DueAt); c != 0 {
			return c
		}

		return strings.Compare(a.LoanID, b.LoanID)
	})

	report.Count = len(report.Entries)

	return report
}
