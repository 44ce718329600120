package tx

import (
	"context"
	"database/sql"
	"fmt"
)

// Runner owns a transactional boundary for write use cases. The business write,
// the counter reservation and the audit append all run inside one transaction so
// an audit failure rolls back the whole operation.
type Runner interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// SQLRunner runs callbacks inside a *sql.Tx carried through context, so stores
// built on database/sql pick the transaction up via From.
type SQLRunner struct {
	db *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// NopRunner satisfies Runner without a database. In-memory stores are already
// serialized by their own locks, so tests can use it directly.
type NopRunner struct{}

func (NopRunner) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
