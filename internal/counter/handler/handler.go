// Package handler exposes the sequence counter endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fundvault/internal/authz"
	"fundvault/internal/counter/models"
	"fundvault/internal/counter/service"
	"fundvault/pkg/platform/httputil"
	"fundvault/pkg/requestcontext"
)

// Service defines the counter operations the HTTP layer needs.
type Service interface {
	List(ctx context.Context) ([]models.Counter, error)
	Preview(ctx context.Context, name string, ref time.Time) (string, error)
}

var _ Service = (*service.Service)(nil)

// Handler wires counter endpoints to the counter service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a counter handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts counter endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/counters", h.HandleList)
	r.Get("/counters/{name}/preview", h.HandlePreview)
}

// CounterResponse is the wire shape of a counter.
type CounterResponse struct {
	Name     string `json:"name"`
	Template string `json:"template"`
	Seq      int64  `json:"seq"`
}

// HandleList handles GET /counters requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := authz.Require(ctx, "counters", "list"); err != nil {
		httputil.WriteError(w, err)
		return
	}

	counters, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list counters",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := make([]CounterResponse, 0, len(counters))
	for _, c := range counters {
		resp = append(resp, CounterResponse{Name: c.Name, Template: c.Template, Seq: c.Seq})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// PreviewResponse carries the next code a counter would render. The code is a
// hint only; a concurrent writer may claim it first.
type PreviewResponse struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// HandlePreview handles GET /counters/{name}/preview requests.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := authz.Require(ctx, "counters", "read"); err != nil {
		httputil.WriteError(w, err)
		return
	}

	name := chi.URLParam(r, "name")
	code, err := h.service.Preview(ctx, name, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to preview counter",
			"request_id", requestcontext.RequestID(ctx),
			"counter", name,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, PreviewResponse{Name: name, Code: code})
}
