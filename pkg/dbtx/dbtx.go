// Package dbtx threads a single *sql.Tx through a call chain via context,
// so repository methods can participate in a caller-started transaction
// without taking a transaction parameter directly. The contract mirrors
// the teacher's pkg/dbtx, observed here only through its test file:
// RunInTransaction begins a tx, puts it in context, invokes fn, commits on
// success, rolls back and re-raises on error, and re-panics after
// rolling back on panic. GetExecutor returns the in-context tx if present,
// otherwise the fallback *sql.DB.
package dbtx

import (
	"context"
	"database/sql"
	"fmt"
)

type txKey struct{}

// Executor is the subset of *sql.DB / *sql.Tx that repositories need.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is the subset of dbresolver.DB / *sql.DB that RunInTransaction needs
// to start a transaction. Repositories hold this instead of *sql.DB
// directly so the same repository code runs against a plain *sql.DB (as
// in tests, via sqlmock) or against the primary/replica dbresolver.DB
// pool bootstrap wires in production.
type DB interface {
	Executor
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// ContextWithTx returns a new context carrying tx.
func ContextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the *sql.Tx stored in ctx, if any.
func TxFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	return tx, ok
}

// GetExecutor returns the transaction in ctx if RunInTransaction put one
// there, otherwise falls back to db so callers work identically whether
// or not they are inside a transaction.
//
//nolint:ireturn
func GetExecutor(ctx context.Context, db DB) Executor {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}

	return db
}

// RunInTransaction begins a serializable transaction on db, stores it in ctx, and
// invokes fn with the new context. It commits on success, rolls back and
// returns the error from fn on failure, and rolls back then re-panics if
// fn panics. A context already carrying a transaction is passed through
// unchanged so transactions never nest.
func RunInTransaction(ctx context.Context, db DB, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("dbtx: begin: %w", err)
	}

	txCtx := ContextWithTx(ctx, tx)

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("dbtx: run failed: %w (rollback also failed: %v)", err, rbErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dbtx: commit: %w", err)
	}

	return nil
}
