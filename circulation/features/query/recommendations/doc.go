// Package recommendations implements the Recommendations query use case.
//
// It projects the loan history of one patron and ranks the catalog with recommend.Recommend.
// A patron without history gets an empty list.
package recommendations
