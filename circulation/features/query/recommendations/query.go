package recommendations

import (
	"github.com/google/uuid"
)

const (
	queryType = "Recommendations"
)

// Query asks for reading suggestions for one patron.
type Query struct {
	PatronID uuid.UUID
	Limit    int // 0 selects the handler's default
}

// BuildQuery creates a new Query with the provided patron ID and limit.
func BuildQuery(patronID uuid.UUID, limit int) Query {
	return Query{
		PatronID: patronID,
		Limit:    limit,
	}
}

func (q Query) QueryType() string {
	return queryType
}
