package overduerisk

const queryType = "OverdueRisk"

// Query scores the overdue risk of every active loan. It takes no parameters.
type Query struct{}

func BuildQuery() Query { return Query{} }

func (Query) QueryType() string { return queryType }
