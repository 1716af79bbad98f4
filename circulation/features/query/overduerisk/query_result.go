package overduerisk

import (
	"time"

	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/risk"
)

// OverdueRisk represents the query result, most likely late first.
type OverdueRisk struct {
	Predictions []risk.Prediction
	High        int
	AsOf        time.Time
}
