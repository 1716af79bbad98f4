package core

import (
	"time"

	"github.com/google/uuid"
)

// TitleCopyLentToPatronEventType is the event type identifier.
const TitleCopyLentToPatronEventType = "TitleCopyLentToPatron"

// TitleCopyLentToPatron is recorded when a patron borrows one copy of a title.
// It reserves the copy and opens the loan at the same time.
type TitleCopyLentToPatron struct {
	LoanID         LoanIDString
	TitleID        TitleIDString
	PatronID       PatronIDString
	BorrowedAt     OccurredAtTS
	DueAt          time.Time
	LoanPeriodDays int
}

// BuildTitleCopyLentToPatron creates a new TitleCopyLentToPatron event, due loanPeriodDays after borrowedAt.
func BuildTitleCopyLentToPatron(
	loanID uuid.UUID,
	titleID uuid.UUID,
	patronID uuid.UUID,
	borrowedAt time.Time,
	loanPeriodDays int,
) TitleCopyLentToPatron {

	borrowed := ToOccurredAt(borrowedAt)

	return TitleCopyLentToPatron{
		LoanID:         loanID.String(),
		TitleID:        titleID.String(),
		PatronID:       patronID.String(),
		BorrowedAt:     borrowed,
		DueAt:          borrowed.Add(time.Duration(loanPeriodDays) * day),
		LoanPeriodDays: loanPeriodDays,
	}
}

func (e TitleCopyLentToPatron) EventType() EventTypeString {
	return TitleCopyLentToPatronEventType
}

func (e TitleCopyLentToPatron) HasOccurredAt() time.Time {
	return e.BorrowedAt
}
