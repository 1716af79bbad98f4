package loanhistory_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/circulation/features/query/loanhistory"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
	"github.com/AntonStoeckl/library-circulation-go/testutil/ledgerhelper"
)

func Test_QueryHandler_Handle_ReturnsPatronHistory_MostRecentFirst(t *testing.T) {
	// arrange
	ledger := ledgerhelper.NewLedger(t)
	patronID := helper.GivenUniqueID(t)
	now := helper.Day0().Add(helper.Days(30))

	first := ledger.GivenLent(t, helper.GivenUniqueID(t), patronID, helper.Day0(), 7)
	ledger.GivenReturned(t, first, helper.Day0().Add(helper.Days(9)), decimal.RequireFromString("2.00"))
	second := ledger.GivenLent(t, helper.GivenUniqueID(t), patronID, helper.Day0().Add(helper.Days(20)), 14)
	ledger.GivenLent(t, helper.GivenUniqueID(t), helper.GivenUniqueID(t), helper.Day0(), 14)

	handler := loanhistory.NewQueryHandler(ledger.EventStore, loanhistory.WithClock(helper.FixedClock(now)))

	// act
	result, err := handler.Handle(context.Background(), loanhistory.BuildQuery(patronID))

	// assert
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	assert.Equal(t, 1, result.Active)
	assert.Equal(t, 1, result.Returned)

	assert.Equal(t, second.LoanID, result.Loans[0].LoanID)
	assert.Equal(t, core.LoanStatusBorrowed, result.Loans[0].Status)
	assert.False(t, result.Loans[0].FineAmount.Valid)

	assert.Equal(t, first.LoanID, result.Loans[1].LoanID)
	assert.Equal(t, core.LoanStatusReturned, result.Loans[1].Status)
	assert.True(t, result.Loans[1].FineAmount.Decimal.Equal(decimal.RequireFromString("2.00")))
}

func Test_QueryHandler_Handle_ForAllPatrons_ReturnsEveryLoan(t *testing.T) {
	// arrange
	ledger := ledgerhelper.NewLedger(t)
	for range 3 {
		ledger.GivenLent(t, helper.GivenUniqueID(t), helper.GivenUniqueID(t), helper.Day0(), 14)
	}

	handler := loanhistory.NewQueryHandler(ledger.EventStore, loanhistory.WithClock(helper.FixedClock(helper.Day0())))

	// act
	result, err := handler.Handle(context.Background(), loanhistory.BuildQueryForAllPatrons())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 3, result.Count)
	assert.Equal(t, 3, result.Active)
}
