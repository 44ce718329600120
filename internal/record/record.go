// Package record implements the write pipeline shared by every instrument and
// master module: authorize, normalize, validate, check uniqueness, then write
// the row, reserve the sequence code and append the audit entry in one
// transaction, and finally publish a realtime notification.
//
// Modules configure the pipeline with a Definition and keep only their own
// validation rules and special operations.
package record

import (
	"context"
	"time"

	"fundvault/pkg/platform/audit"
)

// Statuses a record moves through. IsArchived is orthogonal to status.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusRenewed   = "renewed"
	StatusWithdrawn = "withdrawn"
	StatusClosed    = "closed"
)

// Record is one stored row. Ref (the generated form number or the master's
// name) and Status are lifted out of Data for indexing; Data holds the full
// business document the diff engine operates on.
type Record struct {
	ID           string
	Ref          string
	Status       string
	IsArchived   bool
	Data         audit.Document
	CreatedAt    time.Time
	CreatedByID  string
	UpdatedAt    *time.Time
	UpdatedByID  string
	ArchivedAt   *time.Time
	ArchivedByID string
}

// ListFilter narrows List results. Zero value returns everything unarchived.
type ListFilter struct {
	Status          string
	IncludeArchived bool
	// Data equality constraints, e.g. {"kind": "dividend"}.
	Fields map[string]string
	Limit  int
	Offset int
}

// Store is the persistence boundary for one record collection. Writes honor a
// transaction carried in ctx.
type Store interface {
	Insert(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter ListFilter) ([]Record, error)
	Update(ctx context.Context, rec Record) error
}

// Definition configures the pipeline for one module.
type Definition struct {
	// Module is the permission namespace and audit module name, e.g. "deposits".
	Module string
	// EntityType names the collection on audit entries; usually equals Module.
	EntityType string
	// Table is the uniqueness-check table.
	Table string
	// Counter names the sequence counter used on create. Overridable per
	// record via CounterFor.
	Counter string
	// CounterFor picks the counter from the normalized document, for modules
	// whose kinds keep separate sequences. Nil means always Definition.Counter.
	CounterFor func(doc audit.Document) string
	// RefField is the document key the reserved code is written to
	// ("form_number") or that carries the caller-supplied reference ("name").
	// A caller-supplied value wins; the counter advances either way.
	RefField string
	// UniqueFields lists document keys checked against Table columns.
	UniqueFields []string
	// UUIDArrays lists document keys holding arrays whose elements need a
	// generated uuid when absent.
	UUIDArrays []string
	// Normalize applies module-specific normalization after the shared trim
	// and UUID defaulting. Optional.
	Normalize func(doc audit.Document)
	// Validate applies business rules to the full post-merge document before
	// any write. Optional.
	Validate func(doc audit.Document) error
}
