// Package dashboardstats implements the Dashboard Stats query use case for librarians.
//
// It combines the catalog counts of titles and patrons with the loan counts projected from the
// ledger, plus the five most recently borrowed loans as recent activity.
package dashboardstats
