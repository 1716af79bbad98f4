package borrowtitle_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/command/borrowtitle"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
)

func givenLent(t *testing.T, titleID, patronID uuid.UUID, daysAgo float64) core.TitleCopyLentToPatron {
	return core.BuildTitleCopyLentToPatron(helper.GivenUniqueID(t), titleID, patronID, helper.Day0().Add(-helper.Days(daysAgo)), 14)
}

func givenReturned(lent core.TitleCopyLentToPatron) core.TitleCopyReturnedByPatron {
	loan := core.ProjectLoans(core.DomainEvents{lent})[0]
	return core.BuildTitleCopyReturnedByPatron(loan, helper.Day0(), decimal.Zero)
}

func Test_Decide_Success(t *testing.T) {
	// arrange
	titleID, patronID := helper.GivenUniqueID(t), helper.GivenUniqueID(t)
	history := core.DomainEvents{givenLent(t, titleID, helper.GivenUniqueID(t), 3)}
	command := borrowtitle.BuildCommand(titleID, patronID, 0, helper.Day0())

	// act
	result := borrowtitle.Decide(history, command, 2, core.DefaultLoanPolicy())

	// assert
	require.True(t, result.HasEventToAppend())
	lent, ok := result.Event.(core.TitleCopyLentToPatron)
	require.True(t, ok)
	assert.Equal(t, command.LoanID.String(), lent.LoanID)
	assert.Equal(t, patronID.String(), lent.PatronID)
	assert.Equal(t, core.DefaultLoanPeriodDays, lent.LoanPeriodDays)
	assert.Equal(t, helper.Day0().Add(helper.Days(14)), lent.DueAt)
}

func Test_Decide_Success_AfterPreviousLoanOfPatronWasReturned(t *testing.T) {
	// arrange
	titleID, patronID := helper.GivenUniqueID(t), helper.GivenUniqueID(t)
	previous := givenLent(t, titleID, patronID, 20)
	history := core.DomainEvents{previous, givenReturned(previous)}

	// act
	result := borrowtitle.Decide(history, borrowtitle.BuildCommand(titleID, patronID, 7, helper.Day0()), 1, core.DefaultLoanPolicy())

	// assert
	assert.True(t, result.HasEventToAppend())
}

func Test_Decide_Idempotent_WhenLoanIDIsAlreadyRecorded(t *testing.T) {
	// arrange
	titleID, patronID := helper.GivenUniqueID(t), helper.GivenUniqueID(t)
	command := borrowtitle.BuildCommand(titleID, patronID, 0, helper.Day0())
	recorded := core.BuildTitleCopyLentToPatron(command.LoanID, titleID, patronID, helper.Day0(), 14)

	// act
	result := borrowtitle.Decide(core.DomainEvents{recorded}, command, 1, core.DefaultLoanPolicy())

	// assert
	assert.True(t, result.IsIdempotent())
	assert.False(t, result.HasEventToAppend())
	assert.NoError(t, result.HasError())
}

func Test_Decide_BusinessErrors(t *testing.T) {
	titleID, patronID := helper.GivenUniqueID(t), helper.GivenUniqueID(t)
	otherLoan := givenLent(t, titleID, helper.GivenUniqueID(t), 2)
	ownLoan := givenLent(t, titleID, patronID, 1)

	testCases := []struct {
		name        string
		history     core.DomainEvents
		totalCopies int
		days        int
		expected    error
	}{
		{name: "no copies at all", history: core.DomainEvents{}, totalCopies: 0, expected: core.ErrOutOfStock},
		{name: "all copies lent", history: core.DomainEvents{otherLoan}, totalCopies: 1, expected: core.ErrOutOfStock},
		{name: "patron holds a copy", history: core.DomainEvents{ownLoan}, totalCopies: 5, expected: core.ErrAlreadyBorrowed},
		{name: "negative period", totalCopies: 1, days: -1, expected: core.ErrInvalidLoanPeriod},
		{name: "period above maximum", totalCopies: 1, days: core.DefaultMaxLoanPeriodDays + 1, expected: core.ErrInvalidLoanPeriod},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			result := borrowtitle.Decide(tc.history, borrowtitle.BuildCommand(titleID, patronID, tc.days, helper.Day0()), tc.totalCopies, core.DefaultLoanPolicy())

			// assert
			assert.ErrorIs(t, result.HasError(), tc.expected)
			assert.False(t, result.HasEventToAppend(), "a failed decision must not append anything")
		})
	}
}

func Test_Decide_LoanPeriodBoundaries(t *testing.T) {
	titleID := helper.GivenUniqueID(t)
	policy, err := core.NewLoanPolicy(14, 30)
	require.NoError(t, err)

	for _, days := range []int{1, 30} {
		result := borrowtitle.Decide(nil, borrowtitle.BuildCommand(titleID, helper.GivenUniqueID(t), days, helper.Day0()), 1, policy)
		assert.True(t, result.HasEventToAppend(), "%d days must be allowed", days)
	}

	result := borrowtitle.Decide(nil, borrowtitle.BuildCommand(titleID, helper.GivenUniqueID(t), 31, helper.Day0()), 1, policy)
	assert.ErrorIs(t, result.HasError(), core.ErrInvalidLoanPeriod)
}
