package core_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
	"github.com/AntonStoeckl/library-circulation-go/testutil/helper"
)

func Test_FinePolicy_Fine(t *testing.T) {
	due := helper.Day0()

	testCases := []struct {
		description string
		returnedAt  time.Time
		expected    string
	}{
		{"returned before due", due.Add(-time.Hour), "0"},
		{"returned exactly at due", due, "0"},
		{"one second late pays a full day", due.Add(time.Second), "1"},
		{"exactly one day late", due.Add(helper.Days(1)), "1"},
		{"one day and a minute late", due.Add(helper.Days(1) + time.Minute), "2"},
		{"four days late", due.Add(helper.Days(4)), "4"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			fine := core.DefaultFinePolicy().Fine(due, tc.returnedAt)

			assert.True(t, decimal.RequireFromString(tc.expected).Equal(fine), "got %s", fine)
		})
	}
}

func Test_FinePolicy_Fine_IsCapped(t *testing.T) {
	policy, err := core.NewFinePolicy(decimal.RequireFromString("0.25"), decimal.NewNullDecimal(decimal.RequireFromString("1.50")))
	require.NoError(t, err)

	assert.Equal(t, "0.75", policy.Fine(helper.Day0(), helper.Day0().Add(helper.Days(3))).StringFixed(2))
	assert.Equal(t, "1.50", policy.Fine(helper.Day0(), helper.Day0().Add(helper.Days(30))).StringFixed(2))
}

func Test_FinePolicy_Fine_IsMonotoneInReturnTime(t *testing.T) {
	policy := core.DefaultFinePolicy()
	previous := decimal.Zero

	for hours := -48; hours < 24*20; hours += 7 {
		fine := policy.Fine(helper.Day0(), helper.Day0().Add(time.Duration(hours)*time.Hour))

		assert.False(t, fine.LessThan(previous), "fine must never decrease, %s < %s at %dh", fine, previous, hours)
		assert.False(t, fine.IsNegative())
		previous = fine
	}
}

func Test_NewFinePolicy_RejectsNegativeAmounts(t *testing.T) {
	_, err := core.NewFinePolicy(decimal.NewFromInt(-1), decimal.NullDecimal{})
	assert.ErrorIs(t, err, core.ErrInvalidFinePolicy)

	_, err = core.NewFinePolicy(decimal.NewFromInt(1), decimal.NewNullDecimal(decimal.NewFromInt(-5)))
	assert.ErrorIs(t, err, core.ErrInvalidFinePolicy)
}

func Test_OverdueDays_FloorsPartialDays(t *testing.T) {
	due := helper.Day0()

	assert.Equal(t, 0, core.OverdueDays(due, due.Add(-time.Hour)))
	assert.Equal(t, 0, core.OverdueDays(due, due.Add(23*time.Hour)))
	assert.Equal(t, 1, core.OverdueDays(due, due.Add(helper.Days(1.5))))
	assert.Equal(t, 10, core.OverdueDays(due, due.Add(helper.Days(10))))
}
