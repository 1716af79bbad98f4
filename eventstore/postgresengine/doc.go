// Package postgresengine provides a PostgreSQL implementation of the event store.
//
// Events live in a single table with a JSONB payload. A "dynamic event stream" is whatever
// a Filter selects: event types combined with payload containment predicates.
// Three database adapters are supported (pgx, database/sql with lib/pq, sqlx).
//
// Append guards its insert with the max sequence number of the filtered stream and, inside the same
// transaction, takes advisory locks on the stream keys of the filter (for example "TitleID:t-42").
// Two appends for the same title are serialized and the later one fails with
// eventstore.ErrConcurrencyConflict, while appends for different titles proceed in parallel.
//
// Usage:
//
//	db, _ := pgxpool.New(ctx, dsn)
//	store, _ := postgresengine.NewEventStoreFromPGXPool(db, postgresengine.WithContextualLogger(logger))
//	_ = store.CreateEventsTable(ctx)
//
//	events, maxSeq, _ := store.Query(ctx, filter)
//	err := store.Append(ctx, filter, maxSeq, newEvent)
package postgresengine
