// Package promadapters implements eventstore.MetricsCollector on the Prometheus client library.
//
// Metric vectors are created on first use. The label names of a metric are fixed by its first
// observation; later observations fill missing labels with "" and drop unknown ones, so the
// vector never panics on inconsistent label sets.
package promadapters
