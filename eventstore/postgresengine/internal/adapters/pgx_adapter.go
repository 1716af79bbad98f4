package adapters

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGXAdapter implements DBAdapter for pgxpool.Pool.
type PGXAdapter struct {
	pool        *pgxpool.Pool
	replicaPool *pgxpool.Pool
}

func NewPGXAdapter(pool *pgxpool.Pool) *PGXAdapter {
	return &PGXAdapter{pool: pool}
}

func NewPGXAdapterWithReplica(pool *pgxpool.Pool, replica *pgxpool.Pool) *PGXAdapter {
	return &PGXAdapter{pool: pool, replicaPool: replica}
}

func (p *PGXAdapter) Query(ctx context.Context, query string) (DBRows, error) {
	pool := readFrom(ctx, p.pool, p.replicaPool)

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	return &pgxRows{rows: rows}, nil
}

func (p *PGXAdapter) Exec(ctx context.Context, query string) (DBResult, error) {
	tag, err := p.pool.Exec(ctx, query)
	if err != nil {
		return nil, err
	}

	return &pgxResult{tag: tag}, nil
}

func (p *PGXAdapter) ExecLocked(ctx context.Context, lockStatements []string, query string) (DBResult, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	for _, lockStatement := range lockStatements {
		if _, err = tx.Exec(ctx, lockStatement); err != nil {
			return nil, errors.Join(err, rollbackPGX(ctx, tx))
		}
	}

	tag, err := tx.Exec(ctx, query)
	if err != nil {
		return nil, errors.Join(err, rollbackPGX(ctx, tx))
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &pgxResult{tag: tag}, nil
}

func rollbackPGX(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}

	return nil
}

type pgxRows struct {
	rows pgx.Rows
}

func (p *pgxRows) Next() bool {
	return p.rows.Next()
}

func (p *pgxRows) Scan(dest ...any) error {
	return p.rows.Scan(dest...)
}

func (p *pgxRows) Err() error {
	return p.rows.Err()
}

// Close never fails for pgx rows.
func (p *pgxRows) Close() error {
	p.rows.Close()
	return nil
}

type pgxResult struct {
	tag pgconn.CommandTag
}

func (p *pgxResult) RowsAffected() (int64, error) {
	return p.tag.RowsAffected(), nil
}
