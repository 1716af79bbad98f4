// Package memengine provides an in-memory implementation of the event store.
//
// It is used when no database is configured and in tests. Append performs the same
// compare-and-swap on the max sequence number of the filtered stream as the Postgres engine,
// so command handlers run the identical optimistic retry flow against both engines.
package memengine
