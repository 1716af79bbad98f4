package recommendations

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation/analytics/recommend"
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// Recommendations represents the query result, best match first.
type Recommendations struct {
	PatronID core.PatronIDString
	Items    []recommend.Recommendation
}
