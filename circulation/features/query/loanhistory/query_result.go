package loanhistory

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// LoanHistory represents the query result, most recently borrowed first.
type LoanHistory struct {
	Loans    []core.LoanView
	Count    int
	Active   int
	Returned int
}
