// Package oteladapters implements the eventstore observability interfaces on top of OpenTelemetry.
//
// The circulation daemon uses TracingCollector for spans around event store calls and command handlers,
// MetricsCollector when metrics go to an OTel MeterProvider instead of Prometheus,
// and SlogBridgeLogger so that log records carry the trace and span ids of the active span.
package oteladapters
