package risk_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/risk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
)

func givenLoan(id string, patronID string, borrowedAt time.Time, periodDays int) core.Loan {
	return core.Loan{
		LoanID:         id,
		TitleID:        "title-" + id,
		PatronID:       patronID,
		BorrowedAt:     borrowedAt,
		DueAt:          borrowedAt.Add(helper.Days(float64(periodDays))),
		LoanPeriodDays: periodDays,
	}
}

func returned(loan core.Loan, lateDays float64) core.Loan {
	loan.ReturnedAt = loan.DueAt.Add(helper.Days(lateDays))
	return loan
}

// givenHistory creates total closed loans of patronID, the first late of them returned 3 days late.
func givenHistory(patronID string, total int, late int) []core.Loan {
	history := make([]core.Loan, 0, total)
	for i := range total {
		loan := givenLoan(fmt.Sprintf("%s-h%02d", patronID, i), patronID, helper.Day0().Add(-helper.Days(200)), 14)
		if i < late {
			history = append(history, returned(loan, 3))
		} else {
			history = append(history, returned(loan, -1))
		}
	}

	return history
}

func Test_PunctualityOf_CountsClosedAndOverdueLoans(t *testing.T) {
	// arrange
	now := helper.Day0().Add(helper.Days(30))
	history := []core.Loan{
		returned(givenLoan("a", "p", helper.Day0(), 7), 2),          // late by 2 days
		returned(givenLoan("b", "p", helper.Day0(), 7), -1),         // on time
		givenLoan("c", "p", helper.Day0().Add(helper.Days(12)), 14), // overdue by 4 days
		givenLoan("d", "p", helper.Day0().Add(helper.Days(25)), 14), // active, not due
		returned(givenLoan("e", "other", helper.Day0(), 7), 10),     // other patron
		returned(givenLoan("scored", "p", helper.Day0(), 7), 20),    // excluded
	}

	// act
	p := risk.PunctualityOf(history, "p", "scored", now)

	// assert
	assert.Equal(t, 3, p.Loans)
	assert.Equal(t, 2, p.LateLoans)
	assert.InDelta(t, 2.0/3.0, p.LateRate, 1e-9)
	assert.InDelta(t, 3.0, p.AverageLateDays, 1e-9)
}

func Test_SmoothedLateRate_NewPatronStartsAtPrior(t *testing.T) {
	assert.InDelta(t, 0.2, risk.Punctuality{}.SmoothedLateRate(risk.DefaultOptions()), 1e-9)
}

func Test_Probability_IsMonotoneInLateRate(t *testing.T) {
	// arrange
	now := helper.Day0().Add(helper.Days(5))
	loan := givenLoan("x", "p", helper.Day0(), 14)
	previous := 0.0

	// act + assert
	for late := 0; late <= 20; late++ {
		punctuality := risk.Punctuality{
			Loans:           20,
			LateLoans:       late,
			LateRate:        float64(late) / 20,
			AverageLateDays: 3,
		}

		p := risk.Probability(loan, punctuality, now, risk.DefaultOptions())

		assert.GreaterOrEqual(t, p, previous, "late=%d", late)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		previous = p
	}
}

func Test_Probability_GrowsAsTheDueDateApproaches(t *testing.T) {
	loan := givenLoan("x", "p", helper.Day0(), 14)
	punctuality := risk.Punctuality{}

	early := risk.Probability(loan, punctuality, helper.Day0().Add(helper.Days(1)), risk.DefaultOptions())
	late := risk.Probability(loan, punctuality, helper.Day0().Add(helper.Days(13)), risk.DefaultOptions())

	assert.Greater(t, late, early)
}

func Test_Probability_OverdueLoan_IsAtLeast0_9(t *testing.T) {
	loan := givenLoan("x", "p", helper.Day0(), 14)

	p := risk.Probability(loan, risk.Punctuality{}, helper.Day0().Add(helper.Days(15)), risk.DefaultOptions())

	assert.InDelta(t, 0.92, p, 1e-9)
	assert.Equal(t, risk.LevelHigh, risk.LevelOf(p))
}

func Test_LevelOf_Thresholds(t *testing.T) {
	testCases := []struct {
		p        float64
		expected risk.Level
	}{
		{0, risk.LevelLow},
		{0.3299, risk.LevelLow},
		{0.33, risk.LevelMedium},
		{0.6599, risk.LevelMedium},
		{0.66, risk.LevelHigh},
		{1, risk.LevelHigh},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%v", tc.p), func(t *testing.T) {
			assert.Equal(t, tc.expected, risk.LevelOf(tc.p))
		})
	}
}

func Test_Predict_OrdersByProbability_AndIsDeterministic(t *testing.T) {
	// arrange
	now := helper.Day0().Add(helper.Days(10))
	punctualActive := givenLoan("loan-a", "punctual", helper.Day0(), 14)
	lateActive := givenLoan("loan-b", "late", helper.Day0(), 14)
	history := append(givenHistory("punctual", 10, 0), givenHistory("late", 10, 8)...)
	history = append(history, punctualActive, lateActive)
	active := core.ActiveLoans(history)

	// act
	first := risk.Predict(active, history, now, risk.DefaultOptions())
	second := risk.Predict(active, history, now, risk.DefaultOptions())

	// assert
	require.Len(t, first, 2)
	assert.Equal(t, "loan-b", first[0].LoanID)
	assert.Equal(t, "loan-a", first[1].LoanID)
	assert.Greater(t, first[0].Probability, first[1].Probability)
	assert.InDelta(t, 4.0, first[0].DaysRemaining, 1e-9)
	assert.Equal(t, first, second)
}
