// Package overduereport implements the Overdue Report query use case.
//
// For every active loan past its due time the report shows the title, the patron, the number of
// whole days overdue and the fine that would be charged if the copy came back now.
// The report is projected from the ledger on every call and never stored, its values change daily.
package overduereport
