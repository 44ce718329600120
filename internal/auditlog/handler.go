// Package auditlog exposes read access to the append-only audit trail. Writes
// only happen through the platform recorder inside service transactions; this
// package never mutates entries.
package auditlog

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fundvault/internal/authz"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
	"fundvault/pkg/platform/httputil"
	"fundvault/pkg/requestcontext"
)

const defaultRecentLimit = 50

// Handler serves the audit trail read endpoints.
type Handler struct {
	store  audit.Store
	logger *slog.Logger
}

// New constructs an audit log handler.
func New(store audit.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit-logs", h.HandleListRecent)
	r.Get("/audit-logs/{entityType}/{entityID}", h.HandleListByEntity)
}

// EntryResponse is the wire shape of a single audit entry.
type EntryResponse struct {
	OperationID  string                       `json:"operation_id"`
	EntityType   string                       `json:"entity_type"`
	EntityID     string                       `json:"entity_id"`
	EntityRef    string                       `json:"entity_ref,omitempty"`
	ActorType    string                       `json:"actor_type"`
	ActorID      string                       `json:"actor_id,omitempty"`
	ActorName    string                       `json:"actor_name,omitempty"`
	Action       string                       `json:"action"`
	Module       string                       `json:"module,omitempty"`
	SystemReason string                       `json:"system_reason,omitempty"`
	UserReason   string                       `json:"user_reason,omitempty"`
	Summary      []string                     `json:"summary,omitempty"`
	Changes      map[string]audit.FieldChange `json:"changes,omitempty"`
	Metadata     audit.Metadata               `json:"metadata"`
	CreatedAt    time.Time                    `json:"created_at"`
}

func fromEntry(e audit.Entry) EntryResponse {
	return EntryResponse{
		OperationID:  e.OperationID,
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		EntityRef:    e.EntityRef,
		ActorType:    e.ActorType,
		ActorID:      e.ActorID,
		ActorName:    e.ActorName,
		Action:       string(e.Action),
		Module:       e.Module,
		SystemReason: e.SystemReason,
		UserReason:   e.UserReason,
		Summary:      e.Changes.Summary.Fields,
		Changes:      e.Changes.Fields,
		Metadata:     e.Metadata,
		CreatedAt:    e.CreatedAt,
	}
}

// HandleListRecent handles GET /audit-logs requests. The optional limit query
// parameter caps the page size.
func (h *Handler) HandleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := authz.Require(ctx, "logs", "read"); err != nil {
		httputil.WriteError(w, err)
		return
	}

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.store.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit entries",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResponses(entries))
}

// HandleListByEntity handles GET /audit-logs/{entityType}/{entityID} requests,
// returning the full trail for one record in insertion order.
func (h *Handler) HandleListByEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := authz.Require(ctx, "logs", "read"); err != nil {
		httputil.WriteError(w, err)
		return
	}

	entityType := chi.URLParam(r, "entityType")
	entityID := chi.URLParam(r, "entityID")

	entries, err := h.store.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list audit entries for entity",
			"request_id", requestcontext.RequestID(ctx),
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResponses(entries))
}

func toResponses(entries []audit.Entry) []EntryResponse {
	resp := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, fromEntry(e))
	}
	return resp
}
