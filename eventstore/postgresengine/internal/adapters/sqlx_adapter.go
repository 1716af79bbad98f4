package adapters

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// SQLXAdapter implements DBAdapter for *sqlx.DB.
type SQLXAdapter struct {
	db      *sqlx.DB
	replica *sqlx.DB
}

func NewSQLXAdapter(db *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db}
}

func NewSQLXAdapterWithReplica(db *sqlx.DB, replica *sqlx.DB) *SQLXAdapter {
	return &SQLXAdapter{db: db, replica: replica}
}

func (s *SQLXAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	db := readFrom(ctx, s.db, s.replica)

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdRows{rows: rows}, nil
}

func (s *SQLXAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

func (s *SQLXAdapter) ExecLocked(ctx context.Context, lockStatements []string, query string) (DBResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return execLockedStd(ctx, tx, lockStatements, query)
}
