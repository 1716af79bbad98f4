// Package config loads the service configuration from the environment and creates the
// Postgres connections for the event store engines (pgx.Pool, sql.DB, sqlx.DB).
//
// This package is part of the shell (infrastructure) layer.
package config
