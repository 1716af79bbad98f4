package core

import (
	"fmt"
)

const (
	DefaultLoanPeriodDays    = 14
	DefaultMaxLoanPeriodDays = 60
)

// LoanPolicy bounds the loan period a patron may ask for.
type LoanPolicy struct {
	DefaultDays int
	MaxDays     int
}

// DefaultLoanPolicy allows 1 to 60 days and defaults to 14.
func DefaultLoanPolicy() LoanPolicy {
	return LoanPolicy{DefaultDays: DefaultLoanPeriodDays, MaxDays: DefaultMaxLoanPeriodDays}
}

// NewLoanPolicy fails if the default lies outside 1..maxDays.
func NewLoanPolicy(defaultDays int, maxDays int) (LoanPolicy, error) {
	if maxDays < 1 || defaultDays < 1 || defaultDays > maxDays {
		return LoanPolicy{}, fmt.Errorf("%w: default %d, max %d", ErrInvalidLoanPeriod, defaultDays, maxDays)
	}

	return LoanPolicy{DefaultDays: defaultDays, MaxDays: maxDays}, nil
}

// Resolve maps a requested period to the effective one, 0 meaning "use the default".
func (p LoanPolicy) Resolve(requestedDays int) (int, error) {
	if requestedDays == 0 {
		return p.DefaultDays, nil
	}

	if requestedDays < 1 || requestedDays > p.MaxDays {
		return 0, fmt.Errorf("%w: %d days, allowed 1..%d", ErrInvalidLoanPeriod, requestedDays, p.MaxDays)
	}

	return requestedDays, nil
}
