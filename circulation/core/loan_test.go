package core_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
)

func Test_BuildTitleCopyLentToPatron_DueAtIsBorrowedAtPlusPeriod(t *testing.T) {
	borrowedAt := time.Date(2025, 3, 3, 10, 0, 0, 123456789, time.FixedZone("CET", 3600))

	event := core.BuildTitleCopyLentToPatron(helper.GivenUniqueID(t), helper.GivenUniqueID(t), helper.GivenUniqueID(t), borrowedAt, 14)

	assert.Equal(t, time.UTC, event.BorrowedAt.Location())
	assert.Equal(t, time.Date(2025, 3, 3, 9, 0, 0, 123456000, time.UTC), event.BorrowedAt)
	assert.Equal(t, event.BorrowedAt.Add(14*24*time.Hour), event.DueAt)
	assert.Equal(t, core.TitleCopyLentToPatronEventType, event.EventType())
}

func Test_Loan_StatusAt(t *testing.T) {
	loan := core.Loan{BorrowedAt: helper.Day0(), DueAt: helper.Day0().Add(helper.Days(14))}

	assert.Equal(t, core.LoanStatusBorrowed, loan.StatusAt(helper.Day0().Add(helper.Days(1))))
	assert.Equal(t, core.LoanStatusBorrowed, loan.StatusAt(loan.DueAt), "due time itself is not overdue")
	assert.Equal(t, core.LoanStatusOverdue, loan.StatusAt(loan.DueAt.Add(time.Nanosecond)))

	loan.ReturnedAt = loan.DueAt.Add(helper.Days(3))
	assert.Equal(t, core.LoanStatusReturned, loan.StatusAt(loan.DueAt.Add(helper.Days(100))))
	assert.True(t, loan.WasReturnedLate())
}

func Test_ProjectLoans(t *testing.T) {
	// arrange
	titleID, patronID := helper.GivenUniqueID(t), helper.GivenUniqueID(t)
	first := core.BuildTitleCopyLentToPatron(helper.GivenUniqueID(t), titleID, patronID, helper.Day0(), 14)
	second := core.BuildTitleCopyLentToPatron(helper.GivenUniqueID(t), titleID, patronID, helper.Day0().Add(time.Hour), 7)
	firstLoan := core.Loan{LoanID: first.LoanID, TitleID: first.TitleID, PatronID: first.PatronID}
	returned := core.BuildTitleCopyReturnedByPatron(firstLoan, helper.Day0().Add(helper.Days(16)), decimal.NewFromInt(2))
	orphan := core.BuildTitleCopyReturnedByPatron(core.Loan{LoanID: uuid.NewString()}, helper.Day0(), decimal.Zero)

	// act
	loans := core.ProjectLoans(core.DomainEvents{first, second, returned, orphan, returned})

	// assert
	require.Len(t, loans, 2)
	assert.Equal(t, first.LoanID, loans[0].LoanID)
	assert.False(t, loans[0].IsActive())
	assert.True(t, loans[0].FineAmount.Valid)
	assert.True(t, decimal.NewFromInt(2).Equal(loans[0].FineAmount.Decimal))
	assert.True(t, loans[1].IsActive())
	assert.False(t, loans[1].FineAmount.Valid)
	assert.Len(t, core.ActiveLoans(loans), 1)

	found, ok := core.FindLoan(loans, second.LoanID)
	assert.True(t, ok)
	assert.Equal(t, 7, found.LoanPeriodDays)
}

func Test_SortByBorrowedAt_TieBreaksOnLoanID(t *testing.T) {
	loans := []core.Loan{
		{LoanID: "c", BorrowedAt: helper.Day0().Add(time.Hour)},
		{LoanID: "b", BorrowedAt: helper.Day0()},
		{LoanID: "a", BorrowedAt: helper.Day0()},
	}

	core.SortByBorrowedAt(loans)

	assert.Equal(t, []string{"a", "b", "c"}, []string{loans[0].LoanID, loans[1].LoanID, loans[2].LoanID})
}

func Test_AvailableCopies_NeverNegative(t *testing.T) {
	assert.Equal(t, 2, core.AvailableCopies(3, 1))
	assert.Equal(t, 0, core.AvailableCopies(3, 3))
	assert.Equal(t, 0, core.AvailableCopies(1, 3))
}

func Test_DecisionResult(t *testing.T) {
	assert.False(t, core.IdempotentDecision().HasEventToAppend())
	assert.True(t, core.IdempotentDecision().IsIdempotent())
	assert.NoError(t, core.IdempotentDecision().HasError())

	errorDecision := core.ErrorDecision(core.ErrOutOfStock)
	assert.False(t, errorDecision.HasEventToAppend(), "failed decisions append nothing")
	assert.ErrorIs(t, errorDecision.HasError(), core.ErrOutOfStock)

	success := core.SuccessDecision(core.TitleCopyLentToPatron{})
	assert.True(t, success.HasEventToAppend())
	assert.NoError(t, success.HasError())
}
