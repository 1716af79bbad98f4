package demandforecast

const queryType = "DemandForecast"

// Query forecasts next period's loans for every title. It takes no parameters.
type Query struct{}

func BuildQuery() Query { return Query{} }

func (Query) QueryType() string { return queryType }
