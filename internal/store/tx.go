package store

import (
	"context"
	"database/sql"
	"fmt"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txCtxKey struct{}

// RunInTx runs f inside a write transaction carried by the returned context.
// When ctx already carries a transaction f joins it and the outermost call
// commits. Any error or panic rolls the whole unit back.
func (db *DB) RunInTx(ctx context.Context, f func(context.Context) error) (err error) {
	if txFromContext(ctx) != nil {
		return f(ctx)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	ctx = context.WithValue(ctx, txCtxKey{}, tx)

	defer func() {
		if v := recover(); v != nil {
			if rerr := tx.Rollback(); rerr != nil {
				v = fmt.Sprintf("%v: rolling back transaction: %v", v, rerr)
			}
			panic(v)
		}
	}()

	if err := f(ctx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txCtxKey{}).(*sql.Tx)
	return tx
}

// q returns the transaction carried by ctx, or the pool when there is none.
func (db *DB) q(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return db.conn
}
