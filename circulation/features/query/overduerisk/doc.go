// Package overduerisk implements the Overdue Risk query use case for librarians.
//
// It projects the whole loan history, derives each patron's punctuality from it and scores
// every active loan with risk.Predict.
package overduerisk
