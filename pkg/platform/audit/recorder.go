package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Recorder assembles and persists audit entries. It is deliberately thin: the
// diff is computed by the caller with BuildChanges before Log, and store
// failures propagate unchanged so the enclosing transaction rolls back.
type Recorder struct {
	store  Store
	tracer trace.Tracer
}

func NewRecorder(store Store) (*Recorder, error) {
	if store == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	return &Recorder{
		store:  store,
		tracer: otel.Tracer("fundvault/audit"),
	}, nil
}

// NewOperationID returns a fresh time-ordered opaque token. Entries written for
// the same logical user action share one operation ID.
func (r *Recorder) NewOperationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 only fails when the entropy source does; fall back to v4.
		return uuid.NewString()
	}
	return id.String()
}

// Log persists one entry verbatim. CreatedAt defaults to the current time when
// unset. Required identity fields are enforced here because a partial audit
// trail is worse than a rejected write.
func (r *Recorder) Log(ctx context.Context, entry Entry) error {
	ctx, span := r.tracer.Start(ctx, "audit.Log",
		trace.WithAttributes(
			attribute.String("audit.entity_type", entry.EntityType),
			attribute.String("audit.action", string(entry.Action)),
		))
	defer span.End()

	if entry.OperationID == "" {
		return fmt.Errorf("audit entry requires an operation id")
	}
	if entry.EntityType == "" || entry.EntityID == "" {
		return fmt.Errorf("audit entry requires entity type and id")
	}
	if entry.Action == "" {
		return fmt.Errorf("audit entry requires an action")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	return r.store.Append(ctx, entry)
}
