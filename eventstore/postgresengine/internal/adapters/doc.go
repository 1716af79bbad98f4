// Package adapters hides the differences between pgxpool, database/sql and sqlx behind DBAdapter.
//
// Besides plain Query and Exec, every adapter can run a write inside a transaction that first
// executes a list of lock statements, which the event store uses to serialize appends per stream.
package adapters
