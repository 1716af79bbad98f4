package adapters

import (
	"context"
	"database/sql"
)

// SQLAdapter implements DBAdapter for *sql.DB (lib/pq driver).
type SQLAdapter struct {
	db      *sql.DB
	replica *sql.DB
}

func NewSQLAdapter(db *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db}
}

func NewSQLAdapterWithReplica(db *sql.DB, replica *sql.DB) *SQLAdapter {
	return &SQLAdapter{db: db, replica: replica}
}

func (s *SQLAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	db := readFrom(ctx, s.db, s.replica)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

func (s *SQLAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

func (s *SQLAdapter) ExecLocked(ctx context.Context, lockStatements []string, query string) (DBResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return execLockedStd(ctx, tx, lockStatements, query)
}
