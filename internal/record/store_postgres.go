package record

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"fundvault/pkg/platform/audit"
	"fundvault/pkg/platform/sentinel"
	"fundvault/pkg/platform/tx"
)

// recordTables whitelists the tables the generic store may address; the table
// name is interpolated into SQL.
var recordTables = map[string]bool{
	"bonds":      true,
	"deposits":   true,
	"savings":    true,
	"insurances": true,
	"stocks":     true,
	"banks":      true,
	"owners":     true,
	"brokers":    true,
	"issuers":    true,
	"roles":      true,
}

// PostgresStore persists one record collection. Business fields live in a
// JSONB document; ref, status and the archive flag are lifted into columns for
// filtering.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore builds a store for one whitelisted table.
func NewPostgresStore(db *sql.DB, table string) (*PostgresStore, error) {
	if !recordTables[table] {
		return nil, fmt.Errorf("unknown record table %q", table)
	}
	return &PostgresStore{db: db, table: table}, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) execer {
	if txn, ok := tx.From(ctx); ok {
		return txn
	}
	return s.db
}

const recordColumns = `id, ref, status, is_archived, data,
	created_at, created_by_id, updated_at, updated_by_id, archived_at, archived_by_id`

func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", s.table, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, s.table)

	_, err = s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.Ref, rec.Status, rec.IsArchived, data,
		rec.CreatedAt, nullable(rec.CreatedByID),
		rec.UpdatedAt, nullable(rec.UpdatedByID),
		rec.ArchivedAt, nullable(rec.ArchivedByID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert into %s: %w", s.table, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	query := fmt.Sprintf(`SELECT `+recordColumns+` FROM %s WHERE id = $1`, s.table)
	rec, err := scanRecord(s.execer(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s %q: %w", s.table, id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get from %s: %w", s.table, err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !filter.IncludeArchived {
		where = append(where, "is_archived = FALSE")
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}
	for key, value := range filter.Fields {
		where = append(where, fmt.Sprintf("data->>%s = %s", arg(key), arg(value)))
	}

	query := fmt.Sprintf(`SELECT `+recordColumns+` FROM %s`, s.table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s row: %w", s.table, err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", s.table, err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET ref = $2, status = $3, is_archived = $4, data = $5,
			updated_at = $6, updated_by_id = $7, archived_at = $8, archived_by_id = $9
		WHERE id = $1`, s.table)

	res, err := s.execer(ctx).ExecContext(ctx, query,
		rec.ID, rec.Ref, rec.Status, rec.IsArchived, data,
		rec.UpdatedAt, nullable(rec.UpdatedByID),
		rec.ArchivedAt, nullable(rec.ArchivedByID),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update %s: %w", s.table, sentinel.ErrConflict)
		}
		return fmt.Errorf("update %s: %w", s.table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", s.table, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %q: %w", s.table, rec.ID, sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec        Record
		data       []byte
		createdBy  sql.NullString
		updatedBy  sql.NullString
		archivedBy sql.NullString
		updatedAt  sql.NullTime
		archivedAt sql.NullTime
	)
	if err := row.Scan(
		&rec.ID, &rec.Ref, &rec.Status, &rec.IsArchived, &data,
		&rec.CreatedAt, &createdBy, &updatedAt, &updatedBy, &archivedAt, &archivedBy,
	); err != nil {
		return nil, err
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	rec.Data = doc
	rec.CreatedByID = createdBy.String
	rec.UpdatedByID = updatedBy.String
	rec.ArchivedByID = archivedBy.String
	if updatedAt.Valid {
		t := updatedAt.Time
		rec.UpdatedAt = &t
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		rec.ArchivedAt = &t
	}
	return &rec, nil
}

// decodeDocument re-canonicalizes the stored JSON so documents read back
// diff-stable against freshly built ones.
func decodeDocument(data []byte) (audit.Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return audit.DocumentOf(raw)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
