package activeloansbypatron

import (
	"github.com/google/uuid"
)

const (
	queryType = "ActiveLoansByPatron"
)

// Query asks for the loans a patron currently holds.
type Query struct {
	PatronID uuid.UUID
}

// BuildQuery creates a Query for patronID.
func BuildQuery(patronID uuid.UUID) Query {
	return Query{
		PatronID: patronID,
	}
}

// QueryType names the query in logs, metrics and spans.
func (q Query) QueryType() string {
	return queryType
}
