package activeloansbypatron_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/activeloansbypatron"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
	"github.com/AntonStoeckl/library-circulation-go/testutil/ledgerhelper"
)

func Test_QueryHandler_Handle_ReturnsActiveLoans_OrderedByBorrowedAt_WithDerivedStatus(t *testing.T) {
	// arrange
	ledger := ledgerhelper.NewLedger(t)
	patronID := helper.GivenUniqueID(t)
	otherPatronID := helper.GivenUniqueID(t)
	now := helper.Day0().Add(helper.Days(20))

	overdue := ledger.GivenLent(t, helper.GivenUniqueID(t), patronID, helper.Day0(), 14)
	current := ledger.GivenLent(t, helper.GivenUniqueID(t), patronID, helper.Day0().Add(helper.Days(10)), 14)
	returned := ledger.GivenLent(t, helper.GivenUniqueID(t), patronID, helper.Day0().Add(helper.Days(1)), 14)
	ledger.GivenReturned(t, returned, helper.Day0().Add(helper.Days(5)), decimal.Zero)
	ledger.GivenLent(t, helper.GivenUniqueID(t), otherPatronID, helper.Day0(), 14)

	handler := activeloansbypatron.NewQueryHandler(ledger.EventStore, activeloansbypatron.WithClock(helper.FixedClock(now)))

	// act
	result, err := handler.Handle(context.Background(), activeloansbypatron.BuildQuery(patronID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, patronID.String(), result.PatronID)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, overdue.LoanID, result.Loans[0].LoanID)
	assert.Equal(t, core.LoanStatusOverdue, result.Loans[0].Status)
	assert.Equal(t, current.LoanID, result.Loans[1].LoanID)
	assert.Equal(t, core.LoanStatusBorrowed, result.Loans[1].Status)
}

func Test_QueryHandler_Handle_ReturnsEmptyResult_ForPatronWithoutLoans(t *testing.T) {
	// arrange
	ledger := ledgerhelper.NewLedger(t)
	handler := activeloansbypatron.NewQueryHandler(ledger.EventStore)

	// act
	result, err := handler.Handle(context.Background(), activeloansbypatron.BuildQuery(helper.GivenUniqueID(t)))

	// assert
	require.NoError(t, err)
	assert.Empty(t, result.Loans)
	assert.Zero(t, result.Count)
}

func Test_ProjectActiveLoans_DueAtBoundary_IsStillBorrowed(t *testing.T) {
	// arrange
	patronID := helper.GivenUniqueID(t)
	lent := core.BuildTitleCopyLentToPatron(helper.GivenUniqueID(t), helper.GivenUniqueID(t), patronID, helper.Day0(), 14)

	// act
	atDue := activeloansbypatron.ProjectActiveLoans(core.DomainEvents{lent}, activeloansbypatron.BuildQuery(patronID), lent.DueAt)
	afterDue := activeloansbypatron.ProjectActiveLoans(core.DomainEvents{lent}, activeloansbypatron.BuildQuery(patronID), lent.DueAt.Add(1))

	// assert
	assert.Equal(t, core.LoanStatusBorrowed, atDue.Loans[0].Status)
	assert.Equal(t, core.LoanStatusOverdue, afterDue.Loans[0].Status)
}
