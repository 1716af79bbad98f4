package loanhistory

import (
	"github.com/google/uuid"
)

const (
	queryType = "LoanHistory"
)

// Query represents the intent to list past and current loans.
// A uuid.Nil PatronID selects the loans of all patrons.
type Query struct {
	PatronID uuid.UUID
}

// BuildQuery creates a Query for the loans of one patron.
func BuildQuery(patronID uuid.UUID) Query {
	return Query{
		PatronID: patronID,
	}
}

// BuildQueryForAllPatrons creates a Query for every loan in the ledger.
func BuildQueryForAllPatrons() Query {
	return Query{}
}

func (q Query) QueryType() string {
	return queryType
}

// AllPatrons reports whether the query is not restricted to one patron.
func (q Query) AllPatrons() bool {
	return q.PatronID == uuid.Nil
}
