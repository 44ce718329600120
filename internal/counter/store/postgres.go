package store

import (
	"context"
	"database/sql"
	"fmt"

	"fundvault/internal/counter/models"
	"fundvault/pkg/platform/sentinel"
	txcontext "fundvault/pkg/platform/tx"
)

// PostgresStore persists counters in PostgreSQL. The increment is a single
// UPDATE ... RETURNING statement, so concurrent reservations serialize in the
// database and no caller can observe a stale or duplicated sequence value.
// A naive read-modify-write here would be a correctness bug.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Get(ctx context.Context, name string) (*models.Counter, error) {
	query := `
		SELECT name, template, seq, seq_pad
		FROM counters
		WHERE name = $1
	`
	var c models.Counter
	err := s.querier(ctx).QueryRowContext(ctx, query, name).
		Scan(&c.Name, &c.Template, &c.Seq, &c.SeqPad)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("counter %q: %w", name, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get counter: %w", err)
	}
	return &c, nil
}

// IncrementAndGet atomically adds by to the named counter and returns the
// resulting counter snapshot, including the post-increment seq.
func (s *PostgresStore) IncrementAndGet(ctx context.Context, name string, by int64) (*models.Counter, error) {
	query := `
		UPDATE counters
		SET seq = seq + $2
		WHERE name = $1
		RETURNING name, template, seq, seq_pad
	`
	var c models.Counter
	err := s.querier(ctx).QueryRowContext(ctx, query, name, by).
		Scan(&c.Name, &c.Template, &c.Seq, &c.SeqPad)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("counter %q: %w", name, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("increment counter: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Counter, error) {
	query := `
		SELECT name, template, seq, seq_pad
		FROM counters
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	defer rows.Close()

	var counters []models.Counter
	for rows.Next() {
		var c models.Counter
		if err := rows.Scan(&c.Name, &c.Template, &c.Seq, &c.SeqPad); err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		counters = append(counters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counters: %w", err)
	}
	return counters, nil
}

// Seed inserts missing counters without touching existing sequence positions.
func (s *PostgresStore) Seed(ctx context.Context, counters []models.Counter) error {
	query := `
		INSERT INTO counters (name, template, seq, seq_pad)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`
	for _, c := range counters {
		if _, err := s.db.ExecContext(ctx, query, c.Name, c.Template, c.Seq, c.SeqPad); err != nil {
			return fmt.Errorf("seed counter %s: %w", c.Name, err)
		}
	}
	return nil
}
