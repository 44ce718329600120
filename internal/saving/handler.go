package saving

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	recordhandler "fundvault/internal/record/handler"
	"fundvault/pkg/platform/httputil"
)

// Handler mounts savings endpoints: CRUD with draft support plus draft
// editing and cashback receipt.
type Handler struct {
	*recordhandler.Handler
	service *Service
	logger  *slog.Logger
}

// NewHandler wires the savings HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	h := &Handler{service: service, logger: logger}
	h.Handler = recordhandler.New("savings", service, logger,
		recordhandler.WithDraftSupport(),
		recordhandler.WithExtras(func(r chi.Router) {
			r.Patch("/{id}/draft", h.HandleUpdateDraft)
			r.Post("/{id}/receive-cashback", h.HandleReceiveCashback)
		}),
	)
	return h
}

// HandleUpdateDraft handles PATCH /savings/{id}/draft requests. The activate
// query parameter promotes the draft to active after applying the patch.
func (h *Handler) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	patch, ok := recordhandler.DecodeDocument(w, r)
	if !ok {
		return
	}
	activate := r.URL.Query().Get("activate") == "true"

	rec, err := h.service.UpdateDraft(ctx, chi.URLParam(r, "id"), patch, activate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordhandler.FromRecord(rec))
}

// CashbackReceiptRequest is the wire shape of a cashback receipt.
type CashbackReceiptRequest struct {
	ScheduleUUID   string  `json:"schedule_uuid"`
	ReceivedDate   string  `json:"received_date"`
	ReceivedAmount float64 `json:"received_amount"`
}

// Validate implements httputil.Validator.
func (r CashbackReceiptRequest) Validate() error {
	return nil
}

// HandleReceiveCashback handles POST /savings/{id}/receive-cashback requests.
func (h *Handler) HandleReceiveCashback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CashbackReceiptRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.service.ReceiveCashback(ctx, chi.URLParam(r, "id"), CashbackReceiptInput{
		ScheduleUUID:   req.ScheduleUUID,
		ReceivedDate:   req.ReceivedDate,
		ReceivedAmount: req.ReceivedAmount,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordhandler.FromRecord(rec))
}
