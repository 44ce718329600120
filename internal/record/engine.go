package record

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fundvault/internal/authz"
	counterservice "fundvault/internal/counter/service"
	"fundvault/internal/notify"
	"fundvault/internal/platform/metrics"
	"fundvault/internal/uniqueness"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
	"fundvault/pkg/platform/sentinel"
	"fundvault/pkg/platform/tx"
	"fundvault/pkg/requestcontext"
)

// Counters is the slice of the counter service the engine needs.
type Counters interface {
	Reserve(ctx context.Context, name string, ref time.Time) (*counterservice.Reservation, error)
}

// Deps carries the collaborators shared by every module engine.
type Deps struct {
	Store     Store
	Counters  Counters
	Recorder  *audit.Recorder
	Unique    uniqueness.Checker
	Publisher notify.Publisher
	Tx        tx.Runner
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// Engine runs the shared write pipeline for one module.
type Engine struct {
	def       Definition
	store     Store
	counters  Counters
	recorder  *audit.Recorder
	unique    uniqueness.Checker
	publisher notify.Publisher
	tx        tx.Runner
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// NewEngine validates the definition and wires the pipeline.
func NewEngine(def Definition, deps Deps) (*Engine, error) {
	switch {
	case def.Module == "":
		return nil, fmt.Errorf("record definition needs a module name")
	case def.RefField == "":
		return nil, fmt.Errorf("record definition %s needs a ref field", def.Module)
	case deps.Store == nil:
		return nil, fmt.Errorf("record engine %s needs a store", def.Module)
	case deps.Counters == nil:
		return nil, fmt.Errorf("record engine %s needs the counter service", def.Module)
	case deps.Recorder == nil:
		return nil, fmt.Errorf("record engine %s needs the audit recorder", def.Module)
	case deps.Unique == nil:
		return nil, fmt.Errorf("record engine %s needs the uniqueness checker", def.Module)
	}
	if def.EntityType == "" {
		def.EntityType = def.Module
	}
	if deps.Publisher == nil {
		deps.Publisher = notify.NopPublisher{}
	}
	if deps.Tx == nil {
		deps.Tx = tx.NopRunner{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Engine{
		def:       def,
		store:     deps.Store,
		counters:  deps.Counters,
		recorder:  deps.Recorder,
		unique:    deps.Unique,
		publisher: deps.Publisher,
		tx:        deps.Tx,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		tracer:    otel.Tracer("fundvault/record"),
	}, nil
}

// Module returns the module name the engine serves.
func (e *Engine) Module() string { return e.def.Module }

// Create runs the full write pipeline for a new record. The status argument is
// StatusActive or StatusDraft; drafts skip business validation the way a
// half-filled form must.
func (e *Engine) Create(ctx context.Context, doc audit.Document, status string) (*Record, error) {
	if err := authz.Require(ctx, e.def.Module, "create"); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "record.Create",
		trace.WithAttributes(attribute.String("record.module", e.def.Module)))
	defer span.End()
	start := time.Now()

	doc, err := e.normalize(doc)
	if err != nil {
		return nil, err
	}
	doc["status"] = status
	doc["is_archived"] = false

	if status != StatusDraft {
		if err := e.validate(doc); err != nil {
			return nil, err
		}
	}
	if err := e.checkUnique(ctx, doc, ""); err != nil {
		return nil, err
	}

	actor := requestcontext.ActorFrom(ctx)
	now := requestcontext.Now(ctx).UTC()
	rec := Record{
		ID:          NewID(),
		Status:      status,
		Data:        doc,
		CreatedAt:   now,
		CreatedByID: actor.ID,
	}

	action := audit.ActionCreate
	if status == StatusDraft {
		action = audit.ActionDraft
	}

	err = e.tx.RunInTx(ctx, func(ctx context.Context) error {
		reservation, err := e.counters.Reserve(ctx, e.counterFor(doc), now)
		if err != nil {
			return err
		}
		e.metrics.IncrementCodeReservation(e.counterFor(doc))

		// A caller-supplied ref (prefilled from preview) wins; the counter
		// still advances so the next preview moves on.
		if ref, _ := doc[e.def.RefField].(string); ref != "" {
			rec.Ref = ref
		} else {
			rec.Ref = reservation.Code
			doc[e.def.RefField] = reservation.Code
		}

		if err := e.store.Insert(ctx, rec); err != nil {
			return e.wrapStoreErr(err)
		}

		return e.log(ctx, rec, action, "insert data", "", audit.BuildChanges(nil, doc), e.recorder.NewOperationID())
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncrementRecordWrite(e.def.Module, string(action))
	e.metrics.ObserveWriteLatency(e.def.Module, time.Since(start))
	e.logger.InfoContext(ctx, "record created",
		"module", e.def.Module,
		"record_id", rec.ID,
		"ref", rec.Ref,
		"status", rec.Status,
	)

	e.notifyActor(ctx, rec, action)
	return &rec, nil
}

// UpdateInput parameterizes Apply. Exactly one of Patch and PatchFunc must be
// set; PatchFunc builds the patch from the current record for operations like
// receive that rewrite a schedule row.
type UpdateInput struct {
	ID         string
	Patch      audit.Document
	PatchFunc  func(current *Record) (audit.Document, error)
	Verb       string
	Action     audit.Action
	SystemReason string
	UserReason string
	// Require guards preconditions on the current record, e.g. drafts only.
	Require func(current *Record) error
	// Status moves the record to a new workflow status when non-empty.
	Status string
	// SkipNoopCheck lets workflow transitions through even when the document
	// body is unchanged.
	SkipNoopCheck bool
}

// Apply runs the shared update pipeline: load, merge the patch over the
// current document, reject no-ops, validate, and write row plus audit entry
// in one transaction.
func (e *Engine) Apply(ctx context.Context, in UpdateInput) (*Record, error) {
	if err := authz.Require(ctx, e.def.Module, in.Verb); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "record.Apply",
		trace.WithAttributes(
			attribute.String("record.module", e.def.Module),
			attribute.String("record.action", string(in.Action)),
		))
	defer span.End()
	start := time.Now()

	current, err := e.store.Get(ctx, in.ID)
	if err != nil {
		return nil, e.wrapStoreErr(err)
	}
	if in.Require != nil {
		if err := in.Require(current); err != nil {
			return nil, err
		}
	}

	patch := in.Patch
	if in.PatchFunc != nil {
		if patch, err = in.PatchFunc(current); err != nil {
			return nil, err
		}
	}
	patch, err = e.normalize(patch)
	if err != nil {
		return nil, err
	}
	if in.Status != "" {
		patch["status"] = in.Status
	}

	merged := audit.MergeDefined(current.Data, patch)
	changes := audit.BuildChanges(current.Data, merged)
	if changes.IsEmpty() && !in.SkipNoopCheck {
		return nil, dErrors.New(dErrors.CodeValidation, "no changes detected, modify at least one field before saving")
	}

	if status, _ := merged["status"].(string); status != StatusDraft {
		if err := e.validate(merged); err != nil {
			return nil, err
		}
	}
	if err := e.checkUnique(ctx, merged, current.ID); err != nil {
		return nil, err
	}

	actor := requestcontext.ActorFrom(ctx)
	now := requestcontext.Now(ctx).UTC()

	updated := *current
	updated.Data = merged
	if ref, _ := merged[e.def.RefField].(string); ref != "" {
		updated.Ref = ref
	}
	if status, _ := merged["status"].(string); status != "" {
		updated.Status = status
	}
	updated.UpdatedAt = &now
	updated.UpdatedByID = actor.ID
	if in.Action == audit.ActionArchive {
		merged["is_archived"] = true
		updated.IsArchived = true
		updated.ArchivedAt = &now
		updated.ArchivedByID = actor.ID
	}

	err = e.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := e.store.Update(ctx, updated); err != nil {
			return e.wrapStoreErr(err)
		}
		return e.log(ctx, updated, in.Action, in.SystemReason, in.UserReason, changes, e.recorder.NewOperationID())
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncrementRecordWrite(e.def.Module, string(in.Action))
	e.metrics.ObserveWriteLatency(e.def.Module, time.Since(start))
	e.logger.InfoContext(ctx, "record updated",
		"module", e.def.Module,
		"record_id", updated.ID,
		"action", in.Action,
		"changed_fields", len(changes.Summary.Fields),
	)

	e.notifyActor(ctx, updated, in.Action)
	return &updated, nil
}

// Extend marks the predecessor renewed and creates its successor in one
// transaction. Both audit entries share an operation ID. Used by deposits and
// insurances on rollover-style renewals.
func (e *Engine) Extend(ctx context.Context, predecessorID string, doc audit.Document) (*Record, error) {
	if err := authz.Require(ctx, e.def.Module, "extend"); err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "record.Extend",
		trace.WithAttributes(attribute.String("record.module", e.def.Module)))
	defer span.End()
	start := time.Now()

	predecessor, err := e.store.Get(ctx, predecessorID)
	if err != nil {
		return nil, e.wrapStoreErr(err)
	}
	if predecessor.Status == StatusRenewed {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "record was already extended")
	}

	doc, err = e.normalize(doc)
	if err != nil {
		return nil, err
	}
	doc["status"] = StatusActive
	doc["is_archived"] = false
	doc["renewed_id"] = predecessorID

	if err := e.validate(doc); err != nil {
		return nil, err
	}
	if err := e.checkUnique(ctx, doc, ""); err != nil {
		return nil, err
	}

	actor := requestcontext.ActorFrom(ctx)
	now := requestcontext.Now(ctx).UTC()
	operationID := e.recorder.NewOperationID()

	successor := Record{
		ID:          NewID(),
		Status:      StatusActive,
		Data:        doc,
		CreatedAt:   now,
		CreatedByID: actor.ID,
	}

	err = e.tx.RunInTx(ctx, func(ctx context.Context) error {
		renewed := *predecessor
		renewedDoc := audit.MergeDefined(predecessor.Data, audit.Document{"status": StatusRenewed})
		renewed.Data = renewedDoc
		renewed.Status = StatusRenewed
		renewed.UpdatedAt = &now
		renewed.UpdatedByID = actor.ID
		if err := e.store.Update(ctx, renewed); err != nil {
			return e.wrapStoreErr(err)
		}
		if err := e.log(ctx, renewed, audit.ActionExtend, "mark renewed",
			"", audit.BuildChanges(predecessor.Data, renewedDoc), operationID); err != nil {
			return err
		}

		reservation, err := e.counters.Reserve(ctx, e.counterFor(doc), now)
		if err != nil {
			return err
		}
		e.metrics.IncrementCodeReservation(e.counterFor(doc))
		if ref, _ := doc[e.def.RefField].(string); ref != "" {
			successor.Ref = ref
		} else {
			successor.Ref = reservation.Code
			doc[e.def.RefField] = reservation.Code
		}

		if err := e.store.Insert(ctx, successor); err != nil {
			return e.wrapStoreErr(err)
		}
		return e.log(ctx, successor, audit.ActionCreate, "insert data", "", audit.BuildChanges(nil, doc), operationID)
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncrementRecordWrite(e.def.Module, string(audit.ActionExtend))
	e.metrics.ObserveWriteLatency(e.def.Module, time.Since(start))
	e.logger.InfoContext(ctx, "record extended",
		"module", e.def.Module,
		"predecessor_id", predecessorID,
		"successor_id", successor.ID,
		"ref", successor.Ref,
	)

	e.notifyActor(ctx, successor, audit.ActionExtend)
	return &successor, nil
}

// Get loads one record.
func (e *Engine) Get(ctx context.Context, id string) (*Record, error) {
	if err := authz.Require(ctx, e.def.Module, "read"); err != nil {
		return nil, err
	}
	rec, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, e.wrapStoreErr(err)
	}
	return rec, nil
}

// List returns records matching the filter.
func (e *Engine) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	if err := authz.Require(ctx, e.def.Module, "read"); err != nil {
		return nil, err
	}
	records, err := e.store.List(ctx, filter)
	if err != nil {
		return nil, e.wrapStoreErr(err)
	}
	return records, nil
}

// Archive flags the record archived without deleting it.
func (e *Engine) Archive(ctx context.Context, id, reason string) (*Record, error) {
	return e.Apply(ctx, UpdateInput{
		ID:            id,
		Patch:         audit.Document{"is_archived": true},
		Verb:          "archive",
		Action:        audit.ActionArchive,
		SystemReason:  "archive data",
		UserReason:    reason,
		SkipNoopCheck: true,
		Require: func(current *Record) error {
			if current.IsArchived {
				return dErrors.New(dErrors.CodeInvariantViolation, "record is already archived")
			}
			return nil
		},
	})
}

func (e *Engine) normalize(doc audit.Document) (audit.Document, error) {
	// Undefined markers would not survive the JSON round trip; lift them out
	// and restore them so MergeDefined still sees them.
	skipped := make([]string, 0)
	for k, v := range doc {
		if v == audit.Undefined {
			skipped = append(skipped, k)
			delete(doc, k)
		}
	}
	normalized, err := audit.DocumentOf(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "document cannot be normalized")
	}
	for _, k := range skipped {
		normalized[k] = audit.Undefined
	}
	TrimStrings(normalized)
	EnsureUUIDs(normalized, e.def.UUIDArrays...)
	if e.def.Normalize != nil {
		e.def.Normalize(normalized)
	}
	return normalized, nil
}

func (e *Engine) validate(doc audit.Document) error {
	if e.def.Validate == nil {
		return nil
	}
	return e.def.Validate(doc)
}

func (e *Engine) checkUnique(ctx context.Context, doc audit.Document, excludeID string) error {
	for _, field := range e.def.UniqueFields {
		value, _ := doc[field].(string)
		if err := e.unique.Ensure(ctx, e.def.Table, field, value, excludeID); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) counterFor(doc audit.Document) string {
	if e.def.CounterFor != nil {
		if name := e.def.CounterFor(doc); name != "" {
			return name
		}
	}
	return e.def.Counter
}

func (e *Engine) log(ctx context.Context, rec Record, action audit.Action, systemReason, userReason string, changes audit.ChangeSet, operationID string) error {
	actor := requestcontext.ActorFrom(ctx)
	if err := e.recorder.Log(ctx, audit.Entry{
		OperationID:  operationID,
		EntityType:   e.def.EntityType,
		EntityID:     rec.ID,
		EntityRef:    rec.Ref,
		ActorType:    "user",
		ActorID:      actor.ID,
		ActorName:    actor.Name,
		Action:       action,
		Module:       e.def.Module,
		SystemReason: systemReason,
		UserReason:   userReason,
		Changes:      changes,
		Metadata: metadataFrom(ctx),
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}); err != nil {
		return err
	}
	e.metrics.IncrementAuditEntry(e.def.Module)
	return nil
}

func (e *Engine) notifyActor(ctx context.Context, rec Record, action audit.Action) {
	actor := requestcontext.ActorFrom(ctx)
	notify.Dispatch(ctx, e.publisher, e.logger, notify.Notification{
		Event:      notify.EventLogsNew,
		ActorID:    actor.ID,
		EntityType: e.def.EntityType,
		EntityID:   rec.ID,
		EntityRef:  rec.Ref,
		Action:     string(action),
	})
}

func metadataFrom(ctx context.Context) audit.Metadata {
	info := requestcontext.DeviceInfoFrom(ctx)
	return audit.Metadata{
		IP:      requestcontext.ClientIP(ctx),
		Device:  info.Device,
		Browser: info.Browser,
		OS:      info.OS,
	}
}

func (e *Engine) wrapStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, e.def.Module+" record not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, e.def.Module+" record conflicts with an existing row")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, e.def.Module+" store failure")
	}
}
