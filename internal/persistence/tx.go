package persistence

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRunner executes a function inside one database transaction. Every
// multi-step mutation (status change plus history append, or a full
// class/segment replace) runs under a single WithinTx call so a crash
// mid-sequence can never leave the aggregate half-written.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Querier is the pgx surface repositories run statements against. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so a repository joins an ambient
// transaction transparently.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

// PgxTxRunner runs functions inside pgx transactions carried on the context.
type PgxTxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner wraps a pool.
func NewTxRunner(pool *pgxpool.Pool) *PgxTxRunner {
	return &PgxTxRunner{pool: pool}
}

// WithinTx begins a transaction, stores it on the context for repositories
// to pick up, and commits when fn succeeds. Any error rolls back in full.
func (r *PgxTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(WithQuerier(ctx, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// WithQuerier pins a querier on the context. WithinTx uses it to carry the
// open transaction; repository tests use it to route statements at a stub.
func WithQuerier(ctx context.Context, q Querier) context.Context {
	return context.WithValue(ctx, txKey{}, q)
}

// QuerierFrom returns the querier carried on ctx, or the pool when the
// caller is not inside a WithinTx scope.
func QuerierFrom(ctx context.Context, pool *pgxpool.Pool) Querier {
	if q, ok := ctx.Value(txKey{}).(Querier); ok {
		return q
	}
	return pool
}
