// Package tx threads one *sql.Tx through the context so the record, counter,
// uniqueness and audit stores all join the same unit of work without taking a
// transaction parameter.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx returns a context carrying the transaction. Stores that pick it up
// via From commit or roll back together with the caller. A nil transaction
// leaves ctx unchanged.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From reports the transaction carried by ctx, if any. Callers fall back to
// their plain pool handle when ok is false.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}
