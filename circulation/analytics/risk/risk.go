package risk

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// Level buckets the probability.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

const (
	DefaultPriorLate   = 1.0
	DefaultPriorOnTime = 4.0

	lowThreshold    = 0.33
	mediumThreshold = 0.66

	day = 24 * time.Hour
)

// Options hold the pseudo-counts that smooth the late rate of patrons with little history.
// With the defaults a patron without history starts at a late rate of 0.2.
type Options struct {
	PriorLate   float64
	PriorOnTime float64
}

// DefaultOptions returns one late and four punctual pseudo-loans.
func DefaultOptions() Options {
	return Options{PriorLate: DefaultPriorLate, PriorOnTime: DefaultPriorOnTime}
}

func (o Options) withDefaults() Options {
	if o.PriorLate <= 0 {
		o.PriorLate = DefaultPriorLate
	}

	if o.PriorOnTime <= 0 {
		o.PriorOnTime = DefaultPriorOnTime
	}

	return o
}

// Punctuality summarizes how a patron returned past loans.
type Punctuality struct {
	Loans           int // closed loans plus currently overdue ones
	LateLoans       int
	LateRate        float64 // LateLoans / Loans, 0 without loans
	AverageLateDays float64 // over LateLoans
}

// SmoothedLateRate is (LateRate*Loans + PriorLate) / (Loans + PriorLate + PriorOnTime).
func (p Punctuality) SmoothedLateRate(opts Options) float64 {
	opts = opts.withDefaults()
	n := float64(p.Loans)

	return (p.LateRate*n + opts.PriorLate) / (n + opts.PriorLate + opts.PriorOnTime)
}

// Prediction is the risk estimate of one active loan.
type Prediction struct {
	LoanID        core.LoanIDString
	TitleID       core.TitleIDString
	PatronID      core.PatronIDString
	DueAt         time.Time
	DaysRemaining float64 // 0 once due
	Probability   float64 // in [0,1]
	Level         Level
	Punctuality   Punctuality
}

// PunctualityOf evaluates the loans of patronID in history at now, skipping excludeLoanID.
// Returned loans count as late if returned after DueAt, active loans only count once overdue.
func PunctualityOf(history []core.Loan, patronID core.PatronIDString, excludeLoanID core.LoanIDString, now time.Time) Punctuality {
	var p Punctuality
	lateDays := 0.0

	for _, loan := range history {
		if loan.PatronID != patronID || loan.LoanID == excludeLoanID {
			continue
		}

		switch {
		case !loan.IsActive():
			p.Loans++
			if loan.WasReturnedLate() {
				p.LateLoans++
				lateDays += days(loan.ReturnedAt.Sub(loan.DueAt))
			}

		case loan.StatusAt(now) == core.LoanStatusOverdue:
			p.Loans++
			p.LateLoans++
			lateDays += days(now.Sub(loan.DueAt))
		}
	}

	if p.Loans > 0 {
		p.LateRate = float64(p.LateLoans) / float64(p.Loans)
	}

	if p.LateLoans > 0 {
		p.AverageLateDays = lateDays / float64(p.LateLoans)
	}

	return p
}

// Probability of loan being returned late, given the patron's punctuality.
//
// An overdue loan scores 0.9 + 0.1*r', otherwise
// sigmoid(-3 + 3*r' + 2.5*elapsedFraction + urgency + 0.5*lateness) with r' the smoothed late rate,
// urgency = 1/(1+daysRemaining) and lateness = min(AverageLateDays/7, 1).
// All weights are positive, so the result never decreases when the late rate grows.
func Probability(loan core.Loan, punctuality Punctuality, now time.Time, opts Options) float64 {
	rate := punctuality.SmoothedLateRate(opts)

	if loan.StatusAt(now) == core.LoanStatusOverdue {
		return 0.9 + 0.1*rate
	}

	elapsedFraction := 0.0
	if period := loan.DueAt.Sub(loan.BorrowedAt); period > 0 {
		elapsedFraction = clamp(float64(now.Sub(loan.BorrowedAt))/float64(period), 0, 1)
	}

	urgency := 1 / (1 + daysRemaining(loan, now))
	lateness := min(punctuality.AverageLateDays/7, 1)

	return sigmoid(-3 + 3*rate + 2.5*elapsedFraction + 1.0*urgency + 0.5*lateness)
}

// LevelOf maps p to Low below 0.33, Medium below 0.66, High otherwise.
func LevelOf(p float64) Level {
	switch {
	case p < lowThreshold:
		return LevelLow
	case p < mediumThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Predict scores every loan in active that is still active at now against the history of its patron.
// The result is ordered by Probability descending, then LoanID ascending.
func Predict(active []core.Loan, history []core.Loan, now time.Time, opts Options) []Prediction {
	predictions := make([]Prediction, 0, len(active))

	for _, loan := range active {
		if !loan.IsActive() {
			continue
		}

		punctuality := PunctualityOf(history, loan.PatronID, loan.LoanID, now)
		p := Probability(loan, punctuality, now, opts)

		predictions = append(predictions, Prediction{
			LoanID:        loan.LoanID,
			TitleID:       loan.TitleID,
			PatronID:      loan.PatronID,
			DueAt:         loan.DueAt,
			DaysRemaining: daysRemaining(loan, now),
			Probability:   p,
			Level:         LevelOf(p),
			Punctuality:   punctuality,
		})
	}

	slices.SortFunc(predictions, func(a, b Prediction) int {
		if a.Probability != b.Probability {
			if a.Probability > b.Probability {
				return -1
			}

			return 1
		}

		return strings.Compare(a.LoanID, b.LoanID)
	})

	return predictions
}

func daysRemaining(loan core.Loan, now time.Time) float64 {
	return max(days(loan.DueAt.Sub(now)), 0)
}

func days(d time.Duration) float64 {
	return float64(d) / float64(day)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
