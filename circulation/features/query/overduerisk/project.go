package overduerisk

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/risk"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ProjectOverdueRisk replays the loans and scores the active ones.
// This is a pure function with no side effects.
func ProjectOverdueRisk(history core.DomainEvents, now time.Time, opts risk.Options) OverdueRisk {
	loans := core.ProjectLoans(history)
	predictions := risk.Predict(core.ActiveLoans(loans), loans, now, opts)

	high := 0
	for _, p := range predictions {
		if p.Level == risk.LevelHigh {
			high++
		}
	}

	return OverdueRisk{
		Predictions: predictions,
		High:        high,
		AsOf:        now,
	}
}
