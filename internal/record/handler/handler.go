// Package handler exposes the REST surface shared by every record module.
// Module packages mount it under their own path and add their special
// operations through Extras.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fundvault/internal/record"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
	"fundvault/pkg/platform/httputil"
	"fundvault/pkg/requestcontext"
)

// Engine is the slice of the record engine the generic handler drives.
type Engine interface {
	Create(ctx context.Context, doc audit.Document, status string) (*record.Record, error)
	Apply(ctx context.Context, in record.UpdateInput) (*record.Record, error)
	Get(ctx context.Context, id string) (*record.Record, error)
	List(ctx context.Context, filter record.ListFilter) ([]record.Record, error)
	Archive(ctx context.Context, id, reason string) (*record.Record, error)
}

var _ Engine = (*record.Engine)(nil)

// Handler serves the CRUD surface of one record module.
type Handler struct {
	engine Engine
	logger *slog.Logger
	// base is the URL segment, e.g. "deposits".
	base string
	// filterFields lists query parameters forwarded as document filters.
	filterFields []string
	// extras registers module-specific routes inside the module subrouter.
	extras func(r chi.Router)
	// allowDraft enables creating records in draft status.
	allowDraft bool
}

// Option customizes a Handler.
type Option func(*Handler)

// WithFilterFields forwards the named query parameters as document equality
// filters on list.
func WithFilterFields(fields ...string) Option {
	return func(h *Handler) { h.filterFields = fields }
}

// WithExtras registers module-specific routes on the module subrouter.
func WithExtras(extras func(r chi.Router)) Option {
	return func(h *Handler) { h.extras = extras }
}

// WithDraftSupport allows POST bodies to request draft status.
func WithDraftSupport() Option {
	return func(h *Handler) { h.allowDraft = true }
}

// New constructs a record handler for one module.
func New(base string, engine Engine, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{engine: engine, logger: logger, base: base}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the module's routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/"+h.base, func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Patch("/{id}", h.HandleUpdate)
		r.Post("/{id}/archive", h.HandleArchive)
		if h.extras != nil {
			h.extras(r)
		}
	})
}

// RecordResponse is the wire shape of a record.
type RecordResponse struct {
	ID           string         `json:"id"`
	Ref          string         `json:"ref"`
	Status       string         `json:"status"`
	IsArchived   bool           `json:"is_archived"`
	Data         audit.Document `json:"data"`
	CreatedAt    time.Time      `json:"created_at"`
	CreatedByID  string         `json:"created_by_id,omitempty"`
	UpdatedAt    *time.Time     `json:"updated_at,omitempty"`
	UpdatedByID  string         `json:"updated_by_id,omitempty"`
	ArchivedAt   *time.Time     `json:"archived_at,omitempty"`
	ArchivedByID string         `json:"archived_by_id,omitempty"`
}

// FromRecord converts a record to its response shape.
func FromRecord(rec *record.Record) RecordResponse {
	return RecordResponse{
		ID:           rec.ID,
		Ref:          rec.Ref,
		Status:       rec.Status,
		IsArchived:   rec.IsArchived,
		Data:         rec.Data,
		CreatedAt:    rec.CreatedAt,
		CreatedByID:  rec.CreatedByID,
		UpdatedAt:    rec.UpdatedAt,
		UpdatedByID:  rec.UpdatedByID,
		ArchivedAt:   rec.ArchivedAt,
		ArchivedByID: rec.ArchivedByID,
	}
}

// DecodeDocument reads the request body as a business document.
func DecodeDocument(w http.ResponseWriter, r *http.Request) (audit.Document, bool) {
	var doc audit.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
		return nil, false
	}
	return doc, true
}

// HandleCreate handles POST /{module} requests.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, ok := DecodeDocument(w, r)
	if !ok {
		return
	}

	status := record.StatusActive
	if requested, _ := doc["status"].(string); requested != "" {
		if requested != record.StatusActive && !(h.allowDraft && requested == record.StatusDraft) {
			httputil.WriteError(w, dErrors.Newf(dErrors.CodeBadRequest, "records cannot be created with status %q", requested))
			return
		}
		status = requested
		delete(doc, "status")
	}

	rec, err := h.engine.Create(ctx, doc, status)
	if err != nil {
		h.logError(ctx, "create failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromRecord(rec))
}

// HandleList handles GET /{module} requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := record.ListFilter{
		Status:          q.Get("status"),
		IncludeArchived: q.Get("include_archived") == "true",
	}
	for _, field := range h.filterFields {
		if value := q.Get(field); value != "" {
			if filter.Fields == nil {
				filter.Fields = make(map[string]string)
			}
			filter.Fields[field] = value
		}
	}
	var ok bool
	if filter.Limit, ok = parseOptionalInt(w, q.Get("limit")); !ok {
		return
	}
	if filter.Offset, ok = parseOptionalInt(w, q.Get("offset")); !ok {
		return
	}

	records, err := h.engine.List(ctx, filter)
	if err != nil {
		h.logError(ctx, "list failed", err)
		httputil.WriteError(w, err)
		return
	}

	resp := make([]RecordResponse, 0, len(records))
	for i := range records {
		resp = append(resp, FromRecord(&records[i]))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /{module}/{id} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.engine.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logError(ctx, "get failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// HandleUpdate handles PATCH /{module}/{id} requests. Absent fields keep their
// stored values; explicit nulls clear them.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	patch, ok := DecodeDocument(w, r)
	if !ok {
		return
	}
	delete(patch, "status")

	rec, err := h.engine.Apply(ctx, record.UpdateInput{
		ID:           chi.URLParam(r, "id"),
		Patch:        patch,
		Verb:         "update",
		Action:       audit.ActionUpdate,
		SystemReason: "update data",
	})
	if err != nil {
		h.logError(ctx, "update failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

// ArchiveRequest carries the optional user-stated reason.
type ArchiveRequest struct {
	Reason string `json:"reason"`
}

// HandleArchive handles POST /{module}/{id}/archive requests.
func (h *Handler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ArchiveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed request body"))
			return
		}
	}

	rec, err := h.engine.Archive(ctx, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.logError(ctx, "archive failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	if dErrors.HTTPStatus(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		return
	}
	h.logger.ErrorContext(ctx, msg,
		"module", h.base,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
}

func parseOptionalInt(w http.ResponseWriter, raw string) (int, bool) {
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit and offset must be non-negative integers"))
		return 0, false
	}
	return v, true
}
