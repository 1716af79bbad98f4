package borrowtitle

import (
	"fmt"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// state is projected from the loan history of one title.
type state struct {
	activeLoans         int
	patronHoldsCopy     bool
	loanAlreadyRecorded bool
}

// Decide implements the business rules of borrowing a title. It is a pure function of the
// title's loan history, the command, the catalog's total copies and the loan policy.
//
// Business Rules:
//
//	GIVEN: A title with totalCopies copies and its loan history
//	WHEN: BorrowTitle command is received
//	THEN: TitleCopyLentToPatron event is generated, due after the resolved loan period
//	ERROR: ErrInvalidLoanPeriod if the requested period is outside the policy
//	ERROR: ErrAlreadyBorrowed if the patron holds an active loan of this title
//	ERROR: ErrOutOfStock if every copy is lent out
//	IDEMPOTENCY: If a loan with the command's LoanID exists, no event is generated
func Decide(history core.DomainEvents, command Command, totalCopies int, policy core.LoanPolicy) core.DecisionResult {
	s := project(history, command)

	if s.loanAlreadyRecorded {
		return core.IdempotentDecision()
	}

	loanPeriodDays, err := policy.Resolve(command.LoanPeriodDays)
	if err != nil {
		return core.ErrorDecision(err)
	}

	if s.patronHoldsCopy {
		return core.ErrorDecision(fmt.Errorf("title %s: %w", command.TitleID, core.ErrAlreadyBorrowed))
	}

	if core.AvailableCopies(totalCopies, s.activeLoans) == 0 {
		return core.ErrorDecision(fmt.Errorf("title %s: %w", command.TitleID, core.ErrOutOfStock))
	}

	return core.SuccessDecision(
		core.BuildTitleCopyLentToPatron(
			command.LoanID, command.TitleID, command.PatronID, command.OccurredAt, loanPeriodDays))
}

func project(history core.DomainEvents, command Command) state {
	s := state{}
	patronID := command.PatronID.String()

	for _, loan := range core.ProjectLoans(history) {
		if loan.LoanID == command.LoanID.String() {
			s.loanAlreadyRecorded = true
		}

		if !loan.IsActive() {
			continue
		}

		s.activeLoans++

		if loan.PatronID == patronID {
			s.patronHoldsCopy = true
		}
	}

	return s
}
