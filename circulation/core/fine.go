package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFinePerDay is charged per started overdue day unless configured otherwise.
var DefaultFinePerDay = decimal.RequireFromString("1.00")

// FinePolicy computes the fine of a returned loan in fixed-point currency units.
type FinePolicy struct {
	PerDay decimal.Decimal
	Cap    decimal.NullDecimal // no cap unless Valid
}

// DefaultFinePolicy charges DefaultFinePerDay without a cap.
func DefaultFinePolicy() FinePolicy {
	return FinePolicy{PerDay: DefaultFinePerDay}
}

// NewFinePolicy validates that rate and cap are not negative.
func NewFinePolicy(perDay decimal.Decimal, capAmount decimal.NullDecimal) (FinePolicy, error) {
	if perDay.IsNegative() {
		return FinePolicy{}, ErrInvalidFinePolicy
	}

	if capAmount.Valid && capAmount.Decimal.IsNegative() {
		return FinePolicy{}, ErrInvalidFinePolicy
	}

	return FinePolicy{PerDay: perDay, Cap: capAmount}, nil
}

// Fine is zero if returnedAt is not after dueAt, otherwise every started day late costs PerDay,
// up to Cap. A loan returned 1 second late pays one full day.
func (p FinePolicy) Fine(dueAt time.Time, returnedAt time.Time) decimal.Decimal {
	days := ChargeableDays(dueAt, returnedAt)
	if days == 0 {
		return decimal.Zero
	}

	fine := p.PerDay.Mul(decimal.NewFromInt(days))

	if p.Cap.Valid && fine.GreaterThan(p.Cap.Decimal) {
		return p.Cap.Decimal
	}

	return fine
}

// ChargeableDays is ceil((returnedAt - dueAt) / 24h), or 0 if not late.
func ChargeableDays(dueAt time.Time, returnedAt time.Time) int64 {
	late := returnedAt.Sub(dueAt)
	if late <= 0 {
		return 0
	}

	days := int64(late / day)
	if late%day != 0 {
		days++
	}

	return days
}

// OverdueDays is the number of whole days since dueAt, or 0 if now is not after dueAt.
func OverdueDays(dueAt time.Time, now time.Time) int {
	late := now.Sub(dueAt)
	if late <= 0 {
		return 0
	}

	return int(late / day)
}
