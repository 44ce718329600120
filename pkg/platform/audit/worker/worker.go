// Package worker drains the audit outbox into Kafka. Entries are committed to
// the outbox in the same transaction as the business write; this worker makes
// them visible to downstream consumers without putting Kafka on the request
// path.
package worker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 100
)

type Worker struct {
	db       *sql.DB
	client   *kgo.Client
	topic    string
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

type Option func(*Worker)

func WithPollInterval(d time.Duration) Option {
	return func(w *Worker) { w.interval = d }
}

func WithBatchSize(n int) Option {
	return func(w *Worker) { w.batch = n }
}

// New connects to the Kafka brokers and ensures the audit topic exists.
func New(db *sql.DB, brokers []string, topic string, logger *slog.Logger, opts ...Option) (*Worker, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("audit topic is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := admin.CreateTopic(ctx, 1, 1, nil, topic); err != nil {
		// Already-exists is the steady state after first deploy.
		logger.DebugContext(ctx, "audit topic create skipped", "topic", topic, "reason", err.Error())
	}

	w := &Worker{
		db:       db,
		client:   client,
		topic:    topic,
		logger:   logger,
		interval: defaultPollInterval,
		batch:    defaultBatchSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run polls the outbox until ctx is cancelled. Rows are claimed with
// FOR UPDATE SKIP LOCKED so multiple instances can drain concurrently without
// publishing duplicates.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "outbox drain failed", "error", err.Error())
			}
		}
	}
}

func (w *Worker) drainOnce(ctx context.Context) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, w.batch)
	if err != nil {
		return fmt.Errorf("select outbox rows: %w", err)
	}

	type outboxRow struct {
		id          string
		aggregateID string
		payload     []byte
	}
	var pending []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.id, &row.aggregateID, &row.payload); err != nil {
			rows.Close()
			return fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox rows: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(pending))
	for _, row := range pending {
		records = append(records, &kgo.Record{
			Topic: w.topic,
			Key:   []byte(row.aggregateID),
			Value: row.payload,
		})
	}
	if err := w.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit records: %w", err)
	}

	ids := make([]string, 0, len(pending))
	for _, row := range pending {
		ids = append(ids, row.id)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE outbox SET published_at = NOW() WHERE id = ANY($1)
	`, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox rows published: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outbox tx: %w", err)
	}

	w.logger.DebugContext(ctx, "audit entries published", "count", len(pending))
	return nil
}

func (w *Worker) Close() {
	w.client.Close()
}
