package overduereport

const queryType = "OverdueReport"

// Query lists every loan past its due date, with the fine accrued so far. It takes no parameters.
type Query struct{}

func BuildQuery() Query { return Query{} }

func (Query) QueryType() string { return queryType }
