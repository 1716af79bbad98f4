// Package risk estimates for every active loan the probability that it will be returned late.
//
// The estimate grows with the patron's historical late-return rate and average lateness, and with
// the share of the loan period already used up. Predict is deterministic given identical input.
package risk
