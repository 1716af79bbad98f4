package adapters

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AntonStoeckl/library-circulation-go/eventstore"
)

// DBAdapter defines the database operations needed by the event store.
type DBAdapter interface {
	// Query reads from the replica if one is configured and ctx asks for eventual consistency.
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)

	// ExecLocked runs lockStatements and then query in one transaction, committing only if all succeed.
	ExecLocked(ctx context.Context, lockStatements []string, query string) (DBResult, error)
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}

// readFrom picks the replica handle for eventually consistent reads, if there is one.
func readFrom[H comparable](ctx context.Context, primary, replica H) H {
	var none H
	if replica != none && eventstore.MayReadFromReplica(ctx) {
		return replica
	}

	return primary
}

// stdRows wraps sql.Rows, shared by the database/sql and sqlx adapters.
type stdRows struct {
	rows *sql.Rows
}

func (s *stdRows) Next() bool {
	return s.rows.Next()
}

func (s *stdRows) Scan(dest ...any) error {
	return s.rows.Scan(dest...)
}

func (s *stdRows) Err() error {
	return s.rows.Err()
}

func (s *stdRows) Close() error {
	return s.rows.Close()
}

// stdResult wraps sql.Result.
type stdResult struct {
	result sql.Result
}

func (s *stdResult) RowsAffected() (int64, error) {
	return s.result.RowsAffected()
}

// stdTx is the subset of *sql.Tx and *sqlx.Tx used by execLockedStd.
type stdTx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Commit() error
	Rollback() error
}

func execLockedStd(ctx context.Context, tx stdTx, lockStatements []string, query string) (DBResult, error) {
	for _, lockStatement := range lockStatements {
		if _, err := tx.ExecContext(ctx, lockStatement); err != nil {
			return nil, errors.Join(err, rollback(tx))
		}
	}

	result, err := tx.ExecContext(ctx, query)
	if err != nil {
		return nil, errors.Join(err, rollback(tx))
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return &stdResult{result: result}, nil
}

func rollback(tx stdTx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}
