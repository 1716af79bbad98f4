package dashboardstats

const (
	queryType = "DashboardStats"

	// DefaultRecentActivityLimit is the number of loans listed as recent activity.
	DefaultRecentActivityLimit = 5
)

// Query represents the intent to read the dashboard counters.
type Query struct {
	RecentActivityLimit int // 0 selects DefaultRecentActivityLimit
}

// BuildQuery creates a new Query with the default recent activity limit.
func BuildQuery() Query {
	return Query{RecentActivityLimit: DefaultRecentActivityLimit}
}

func (q Query) QueryType() string {
	return queryType
}
