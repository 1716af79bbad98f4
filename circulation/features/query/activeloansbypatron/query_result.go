package activeloansbypatron

import (
	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// ActiveLoans represents the query result with the active loans of one patron.
type ActiveLoans struct {
	PatronID core.PatronIDString
	Loans    []core.LoanView
	Count    int
}
