// Package seed fills an empty catalog and event log with sample titles, patrons and a few weeks
// of loan history, so a fresh instance has data for its reports and analytics.
//
// The history is produced by a desk running on a simulated clock, so every seeded loan went
// through the same borrow and return rules as live traffic.
package seed
