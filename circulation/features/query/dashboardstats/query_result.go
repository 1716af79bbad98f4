package dashboardstats

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// Stats represents the query result.
type Stats struct {
	TotalBooks     int
	TotalUsers     int
	ActiveBorrows  int
	OverdueBooks   int
	RecentActivity []core.LoanView
}
