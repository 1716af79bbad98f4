// Package forecast predicts the near-term loan demand of every title from its recent weekly loan volume.
//
// The prediction extrapolates a least-squares trend over the trailing weeks. Its confidence grows
// with the number of loans observed and shrinks with the week-to-week variance, so titles with
// little or no history get a low confidence instead of an error.
package forecast
