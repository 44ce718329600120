// Package uniqueness validates user-supplied identifiers (form numbers,
// certificate numbers, names) against existing rows before insert or update.
package uniqueness

import (
	"context"
	"database/sql"
	"fmt"

	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/tx"
)

// Checker answers whether a value is already taken in a given table column.
// excludeID carries the record's own ID on updates so it never collides with
// itself; empty on creates.
type Checker interface {
	Ensure(ctx context.Context, table, column, value, excludeID string) error
}

// allowed whitelists every table/field pair the checker may query. Table and
// field names are interpolated into SQL, so only entries listed here are
// accepted. Fields address keys of the record's JSONB document.
var allowed = map[string]map[string]bool{
	"bonds":      {"form_number": true},
	"deposits":   {"form_number": true, "bilyet_number": true},
	"savings":    {"form_number": true},
	"insurances": {"form_number": true, "policy_number": true},
	"stocks":     {"form_number": true},
	"banks":      {"name": true},
	"owners":     {"name": true},
	"brokers":    {"name": true},
	"issuers":    {"name": true},
	"roles":      {"name": true},
}

// PostgresChecker checks uniqueness against live rows, honoring an in-flight
// transaction on the context so a create sees its own uncommitted writes.
type PostgresChecker struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresChecker {
	return &PostgresChecker{db: db}
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (c *PostgresChecker) querier(ctx context.Context) queryRower {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return c.db
}

func (c *PostgresChecker) Ensure(ctx context.Context, table, column, value, excludeID string) error {
	if !allowed[table][column] {
		return dErrors.Newf(dErrors.CodeInternal, "uniqueness check not allowed for %s.%s", table, column)
	}
	if value == "" {
		return nil
	}

	query := fmt.Sprintf(
		"SELECT EXISTS (SELECT 1 FROM %s WHERE data->>'%s' = $1 AND ($2 = '' OR id::text <> $2))",
		table, column,
	)

	var taken bool
	if err := c.querier(ctx).QueryRowContext(ctx, query, value, excludeID).Scan(&taken); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "uniqueness check failed")
	}
	if taken {
		return conflict(column)
	}
	return nil
}

// InMemoryChecker backs unit tests with a fixed set of taken values keyed by
// table, column and value.
type InMemoryChecker struct {
	taken map[string]string
}

func NewInMemory() *InMemoryChecker {
	return &InMemoryChecker{taken: make(map[string]string)}
}

// Take registers value as owned by recordID.
func (c *InMemoryChecker) Take(table, column, value, recordID string) {
	c.taken[table+"/"+column+"/"+value] = recordID
}

func (c *InMemoryChecker) Ensure(_ context.Context, table, column, value, excludeID string) error {
	if !allowed[table][column] {
		return dErrors.Newf(dErrors.CodeInternal, "uniqueness check not allowed for %s.%s", table, column)
	}
	if value == "" {
		return nil
	}
	owner, taken := c.taken[table+"/"+column+"/"+value]
	if taken && (excludeID == "" || owner != excludeID) {
		return conflict(column)
	}
	return nil
}

func conflict(column string) error {
	return dErrors.WithDetails(dErrors.CodeConflict, "value already exists", map[string]string{
		column: "already exists",
	})
}
