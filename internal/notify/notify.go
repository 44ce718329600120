//go:generate mockgen -source=notify.go -destination=mocks/mocks.go -package=mocks Publisher

// Package notify fans out record-change notifications to back-office clients
// over Redis pub/sub. Delivery is best effort: a write that committed is never
// rolled back because a notification failed.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventLogsNew signals that a new audit log entry exists for the actor.
const EventLogsNew = "logs:new"

// Notification is the payload pushed to a client's channel.
type Notification struct {
	Event      string    `json:"event"`
	ActorID    string    `json:"actor_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	EntityRef  string    `json:"entity_ref,omitempty"`
	Action     string    `json:"action"`
	CreatedAt  time.Time `json:"created_at"`
}

// Channel returns the per-actor pub/sub channel the notification targets.
func (n Notification) Channel() string {
	return "notifications:" + n.ActorID
}

// Publisher delivers notifications to subscribed clients.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// RedisPublisher publishes notifications on per-actor Redis channels.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, n.Channel(), payload).Err()
}

// NopPublisher discards notifications. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Notification) error { return nil }

const dispatchTimeout = 5 * time.Second

// Dispatch publishes n in the background, detached from the request's
// cancellation. Failures are logged and swallowed.
func Dispatch(ctx context.Context, publisher Publisher, logger *slog.Logger, n Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		pubCtx, cancel := context.WithTimeout(detached, dispatchTimeout)
		defer cancel()

		if err := publisher.Publish(pubCtx, n); err != nil {
			logger.WarnContext(pubCtx, "notification dropped",
				"channel", n.Channel(),
				"event", n.Event,
				"error", err,
			)
		}
	}()
}
