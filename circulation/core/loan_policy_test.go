package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

func Test_LoanPolicy_Resolve(t *testing.T) {
	policy := core.DefaultLoanPolicy()

	testCases := []struct {
		requested   int
		expected    int
		expectedErr error
	}{
		{0, core.DefaultLoanPeriodDays, nil},
		{1, 1, nil},
		{21, 21, nil},
		{core.DefaultMaxLoanPeriodDays, core.DefaultMaxLoanPeriodDays, nil},
		{core.DefaultMaxLoanPeriodDays + 1, 0, core.ErrInvalidLoanPeriod},
		{-3, 0, core.ErrInvalidLoanPeriod},
	}

	for _, tc := range testCases {
		days, err := policy.Resolve(tc.requested)

		if tc.expectedErr != nil {
			assert.ErrorIs(t, err, tc.expectedErr, "requested %d", tc.requested)
			continue
		}

		assert.NoError(t, err)
		assert.Equal(t, tc.expected, days)
	}
}

func Test_NewLoanPolicy_Validates(t *testing.T) {
	_, err := core.NewLoanPolicy(30, 20)
	assert.ErrorIs(t, err, core.ErrInvalidLoanPeriod)

	policy, err := core.NewLoanPolicy(7, 28)
	assert.NoError(t, err)
	assert.Equal(t, 28, policy.MaxDays)
}
