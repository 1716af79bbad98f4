package returnloan

import (
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// Decide implements the business rules of returning a loan. It is a pure function of the loan
// history of the loan's title, the command and the fine policy.
//
// Business Rules:
//
//	GIVEN: The loan history of the title the loan belongs to
//	WHEN: ReturnLoan command is received
//	THEN: TitleCopyReturnedByPatron event is generated with the fine for every started late day
//	ERROR: ErrNotFound if the loan does not exist
//	ERROR: ErrForbidden if the caller neither borrowed the copy nor is a librarian
//	ERROR: ErrAlreadyReturned if the loan was returned before, its fine stays unchanged
func Decide(history core.DomainEvents, command Command, finePolicy core.FinePolicy) core.DecisionResult {
	loanID := command.LoanID.String()

	loan, found := core.FindLoan(core.ProjectLoans(history), loanID)
	if !found {
		return core.ErrorDecision(fmt.Errorf("loan %s: %w", loanID, core.ErrNotFound))
	}

	if loan.PatronID != command.CallerID.String() && !command.CallerIsLibrarian {
		return core.ErrorDecision(fmt.Errorf("loan %s belongs to another patron: %w", loanID, core.ErrForbidden))
	}

	if !loan.IsActive() {
		return core.ErrorDecision(fmt.Errorf("loan %s: %w", loanID, core.ErrAlreadyReturned))
	}

	return core.SuccessDecision(
		core.BuildTitleCopyReturnedByPatron(
			loan, command.OccurredAt, finePolicy.Fine(loan.DueAt, command.OccurredAt)))
}
