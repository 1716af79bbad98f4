package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// TitleCopyReturnedByPatronEventType is the event type identifier.
const TitleCopyReturnedByPatronEventType = "TitleCopyReturnedByPatron"

// TitleCopyReturnedByPatron closes a loan and frees its copy. The fine is fixed at this point.
type TitleCopyReturnedByPatron struct {
	LoanID     LoanIDString
	TitleID    TitleIDString
	PatronID   PatronIDString
	ReturnedAt OccurredAtTS
	FineAmount decimal.Decimal
}

// BuildTitleCopyReturnedByPatron creates a new TitleCopyReturnedByPatron event for the given loan.
func BuildTitleCopyReturnedByPatron(loan Loan, returnedAt time.Time, fine decimal.Decimal) TitleCopyReturnedByPatron {
	return TitleCopyReturnedByPatron{
		LoanID:     loan.LoanID,
		TitleID:    loan.TitleID,
		PatronID:   loan.PatronID,
		ReturnedAt: ToOccurredAt(returnedAt),
		FineAmount: fine,
	}
}

func (e TitleCopyReturnedByPatron) EventType() EventTypeString {
	return TitleCopyReturnedByPatronEventType
}

func (e TitleCopyReturnedByPatron) HasOccurredAt() time.Time {
	return e.ReturnedAt
}
