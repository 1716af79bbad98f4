package config

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

const (
	pgxMaxConnections    = int32(16)
	pgxMinConnections    = int32(2)
	sqlMaxOpenConns      = 50
	sqlMaxIdleConns      = 10
	maxConnLifetime      = time.Hour
	maxConnIdleTime      = 5 * time.Minute
	pgxHealthCheckPeriod = time.Minute
	connectTimeout       = 5 * time.Second
)

// NewPGXPool parses dsn, applies the pool tuning and verifies the connection.
func NewPGXPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	poolConfig.MaxConns = pgxMaxConnections
	poolConfig.MinConns = pgxMinConnections
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = pgxHealthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating pgx pool: %w", err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return pool, nil
}

// OpenSQLDB opens a database/sql pool on the lib/pq driver and verifies the connection.
func OpenSQLDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	configureSQLPool(db)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return db, nil
}

// OpenSQLX opens a sqlx pool on the lib/pq driver and verifies the connection.
func OpenSQLX(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}

	configureSQLPool(db.DB)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return db, nil
}

func configureSQLPool(db *sql.DB) {
	db.SetMaxOpenConns(sqlMaxOpenConns)
	db.SetMaxIdleConns(sqlMaxIdleConns)
	db.SetConnMaxLifetime(maxConnLifetime)
	db.SetConnMaxIdleTime(maxConnIdleTime)
}
