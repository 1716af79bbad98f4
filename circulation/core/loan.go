package core

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is derived from the timestamps of a Loan and the current time, it is never stored.
type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "borrowed"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusReturned LoanStatus = "returned"
)

// Loan is the projection of a TitleCopyLentToPatron event and, once returned,
// its TitleCopyReturnedByPatron event.
type Loan struct {
	LoanID         LoanIDString
	TitleID        TitleIDString
	PatronID       PatronIDString
	BorrowedAt     time.Time
	DueAt          time.Time
	LoanPeriodDays int
	ReturnedAt     time.Time // zero while active
	FineAmount     decimal.NullDecimal
}

// IsActive reports whether the loan still holds a copy.
func (l Loan) IsActive() bool {
	return l.ReturnedAt.IsZero()
}

// StatusAt derives the status at now: returned is terminal, otherwise overdue iff now > DueAt.
func (l Loan) StatusAt(now time.Time) LoanStatus {
	switch {
	case !l.IsActive():
		return LoanStatusReturned
	case now.After(l.DueAt):
		return LoanStatusOverdue
	default:
		return LoanStatusBorrowed
	}
}

// WasReturnedLate reports whether a returned loan came back after its due time.
func (l Loan) WasReturnedLate() bool {
	return !l.IsActive() && l.ReturnedAt.After(l.DueAt)
}

// LoanView is a Loan together with its status at the time the view was built.
type LoanView struct {
	Loan
	Status LoanStatus
}

// ViewAt builds the LoanView at now.
func (l Loan) ViewAt(now time.Time) LoanView {
	return LoanView{Loan: l, Status: l.StatusAt(now)}
}

// ProjectLoans replays loan events in order. Loans keep the order of their lent events,
// return events without a matching lent event are ignored.
func ProjectLoans(history DomainEvents) []Loan {
	loans := make([]Loan, 0)
	positions := make(map[LoanIDString]int)

	for _, event := range history {
		switch e := event.(type) {
		case TitleCopyLentToPatron:
			if _, seen := positions[e.LoanID]; seen {
				continue
			}

			positions[e.LoanID] = len(loans)
			loans = append(loans, Loan{
				LoanID:         e.LoanID,
				TitleID:        e.TitleID,
				PatronID:       e.PatronID,
				BorrowedAt:     e.BorrowedAt,
				DueAt:          e.DueAt,
				LoanPeriodDays: e.LoanPeriodDays,
			})

		case TitleCopyReturnedByPatron:
			i, ok := positions[e.LoanID]
			if !ok || !loans[i].IsActive() {
				continue
			}

			loans[i].ReturnedAt = e.ReturnedAt
			loans[i].FineAmount = decimal.NewNullDecimal(e.FineAmount)
		}
	}

	return loans
}

// FindLoan returns the loan with loanID, if any.
func FindLoan(loans []Loan, loanID LoanIDString) (Loan, bool) {
	i := slices.IndexFunc(loans, func(l Loan) bool { return l.LoanID == loanID })
	if i < 0 {
		return Loan{}, false
	}

	return loans[i], true
}

// ActiveLoans keeps the loans that still hold a copy.
func ActiveLoans(loans []Loan) []Loan {
	return slices.DeleteFunc(slices.Clone(loans), func(l Loan) bool { return !l.IsActive() })
}

// SortByBorrowedAt orders loans by BorrowedAt ascending, then LoanID.
func SortByBorrowedAt(loans []Loan) {
	slices.SortStableFunc(loans, func(a, b Loan) int {
		if c := a.BorrowedAt.Compare(b.BorrowedAt); c != 0 {
			return c
		}

		return strings.Compare(a.LoanID, b.LoanID)
	})
}

// AvailableCopies is total minus the active loans, never negative.
// It goes below zero only if the catalog lowered total copies while loans were out.
func AvailableCopies(totalCopies int, activeLoans int) int {
	return max(totalCopies-activeLoans, 0)
}
