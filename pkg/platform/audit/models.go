package audit

import (
	"context"
	"time"
)

// Action is the verb recorded on an audit entry.
type Action string

const (
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDraft    Action = "draft"
	ActionArchive  Action = "archive"
	ActionWithdraw Action = "withdraw"
	ActionExtend   Action = "extend"
	ActionReceive  Action = "receive"
	ActionDelete   Action = "delete"
)

// ChangeKind classifies a single field-path difference.
type ChangeKind string

const (
	KindAdded   ChangeKind = "added"
	KindRemoved ChangeKind = "removed"
	KindChanged ChangeKind = "changed"
)

// FieldChange records the old and new value at one field path.
type FieldChange struct {
	Kind ChangeKind `json:"kind"`
	Old  any        `json:"old,omitempty"`
	New  any        `json:"new,omitempty"`
}

// Summary lists every changed field path. An empty Fields slice is the signal
// callers use to reject no-op updates.
type Summary struct {
	Fields []string `json:"fields"`
}

// ChangeSet is the structural before/after comparison stored on an entry.
type ChangeSet struct {
	Summary Summary                `json:"summary"`
	Fields  map[string]FieldChange `json:"fields,omitempty"`
}

// IsEmpty reports whether the comparison found no differences.
func (c ChangeSet) IsEmpty() bool { return len(c.Summary.Fields) == 0 }

// Metadata captures client context for forensics.
type Metadata struct {
	IP      string `json:"ip,omitempty"`
	Device  string `json:"device,omitempty"`
	Browser string `json:"browser,omitempty"`
	OS      string `json:"os,omitempty"`
}

// Entry is an immutable record of one state-changing operation. One logical user
// action may touch several entities; entries from the same action share an
// OperationID.
type Entry struct {
	OperationID  string    `json:"operation_id"`
	EntityType   string    `json:"entity_type"`
	EntityID     string    `json:"entity_id"`
	EntityRef    string    `json:"entity_ref,omitempty"`
	ActorType    string    `json:"actor_type"`
	ActorID      string    `json:"actor_id"`
	ActorName    string    `json:"actor_name,omitempty"`
	Action       Action    `json:"action"`
	Module       string    `json:"module"`
	SystemReason string    `json:"system_reason,omitempty"`
	UserReason   string    `json:"user_reason,omitempty"`
	Changes      ChangeSet `json:"changes"`
	Metadata     Metadata  `json:"metadata"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the append-only persistence boundary for audit entries. Append runs
// inside the caller's transaction when one is carried in ctx; entries are never
// mutated or deleted afterwards.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error)
	ListRecent(ctx context.Context, limit int) ([]Entry, error)
}
