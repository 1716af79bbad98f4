package overduereport

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/library-circulation-go/circulation/core"
)

// Entry is one overdue loan with its accrued fine.
type Entry struct {
	LoanID         core.LoanIDString
	TitleID        core.TitleIDString
	TitleName      string
	PatronID       core.PatronIDString
	BorrowedAt     time.Time
	DueAt          time.Time
	OverdueDays    int
	CalculatedFine decimal.Decimal
}

// Report represents the query result, ordered by DueAt then LoanID.
type Report struct {
	Entries    []Entry
	Count      int
	TotalFines decimal.Decimal
	AsOf       time.Time
}
