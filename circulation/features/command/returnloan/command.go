package returnloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

const (
	commandType = "ReturnLoan"
)

// Command represents the intent to return the copy held by a loan.
// The caller is the patron who hands the copy in, a librarian may return any loan.
type Command struct {
	CommandID         uuid.UUID
	LoanID            uuid.UUID
	CallerID          uuid.UUID
	CallerIsLibrarian bool
	OccurredAt        core.OccurredAtTS
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(loanID uuid.UUID, callerID uuid.UUID, callerIsLibrarian bool, occurredAt time.Time) Command {
	return Command{
		CommandID:         uuid.New(),
		LoanID:            loanID,
		CallerID:          callerID,
		CallerIsLibrarian: callerIsLibrarian,
		OccurredAt:        core.ToOccurredAt(occurredAt),
	}
}
