package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	audit "fundvault/pkg/platform/audit"
	txcontext "fundvault/pkg/platform/tx"
)

// Store persists audit entries in PostgreSQL. Each Append writes the entry to
// audit_logs and a copy to the transactional outbox, so the outbox worker can
// fan entries out to Kafka after commit. Both inserts join the caller's
// transaction when one is carried in ctx.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Append(ctx context.Context, entry audit.Entry) error {
	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	entryID := uuid.New()
	query := `
		INSERT INTO audit_logs (
			id, operation_id, entity_type, entity_id, entity_ref,
			actor_type, actor_id, actor_name, action, module,
			system_reason, user_reason, changes, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		entryID,
		entry.OperationID,
		entry.EntityType,
		entry.EntityID,
		entry.EntityRef,
		entry.ActorType,
		entry.ActorID,
		entry.ActorName,
		string(entry.Action),
		entry.Module,
		entry.SystemReason,
		entry.UserReason,
		changes,
		metadata,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal outbox payload: %w", err)
	}
	outboxQuery := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, outboxQuery,
		uuid.New(),
		entry.EntityType,
		entry.EntityID,
		string(entry.Action),
		payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityType, entityID string) ([]audit.Entry, error) {
	query := selectColumns + `
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	query := selectColumns + `
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

const selectColumns = `
	SELECT operation_id, entity_type, entity_id, entity_ref,
		   actor_type, actor_id, actor_name, action, module,
		   system_reason, user_reason, changes, metadata, created_at
	FROM audit_logs
`

func scanEntries(rows *sql.Rows) ([]audit.Entry, error) {
	var entries []audit.Entry

	for rows.Next() {
		var (
			entry    audit.Entry
			action   string
			changes  []byte
			metadata []byte
		)
		err := rows.Scan(
			&entry.OperationID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.EntityRef,
			&entry.ActorType,
			&entry.ActorID,
			&entry.ActorName,
			&action,
			&entry.Module,
			&entry.SystemReason,
			&entry.UserReason,
			&changes,
			&metadata,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = audit.Action(action)
		if err := json.Unmarshal(changes, &entry.Changes); err != nil {
			return nil, fmt.Errorf("unmarshal changes: %w", err)
		}
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
