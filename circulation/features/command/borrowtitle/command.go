package borrowtitle

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

const (
	commandType = "BorrowTitle"
)

// Command represents the intent of a patron to borrow one copy of a title.
// LoanID is assigned when the command is built, so a retried command is recognized as a duplicate.
type Command struct {
	LoanID         uuid.UUID
	TitleID        uuid.UUID
	PatronID       uuid.UUID
	LoanPeriodDays int // 0 selects the default period
	OccurredAt     core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with a fresh time-ordered LoanID.
func BuildCommand(titleID uuid.UUID, patronID uuid.UUID, loanPeriodDays int, occurredAt time.Time) Command {
	return Command{
		LoanID:         uuid.Must(uuid.NewV7()),
		TitleID:        titleID,
		PatronID:       patronID,
		LoanPeriodDays: loanPeriodDays,
		OccurredAt:     core.ToOccurredAt(occurredAt),
	}
}
