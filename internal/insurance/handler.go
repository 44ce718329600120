package insurance

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	recordhandler "fundvault/internal/record/handler"
	"fundvault/pkg/platform/httputil"
)

// Handler mounts insurance endpoints: the shared CRUD surface plus extension,
// surrender and interest receipt.
type Handler struct {
	*recordhandler.Handler
	service *Service
	logger  *slog.Logger
}

// NewHandler wires the insurance HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	h := &Handler{service: service, logger: logger}
	h.Handler = recordhandler.New("insurances", service, logger,
		recordhandler.WithExtras(func(r chi.Router) {
			r.Post("/{id}/extend", h.HandleExtend)
			r.Post("/{id}/withdraw", h.HandleWithdraw)
			r.Post("/{id}/receive-interest", h.HandleReceiveInterest)
		}),
	)
	return h
}

// HandleExtend handles POST /insurances/{id}/extend requests.
func (h *Handler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, ok := recordhandler.DecodeDocument(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Extend(ctx, chi.URLParam(r, "id"), doc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recordhandler.FromRecord(rec))
}

// HandleWithdraw handles POST /insurances/{id}/withdraw requests.
func (h *Handler) HandleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	doc, ok := recordhandler.DecodeDocument(w, r)
	if !ok {
		return
	}

	rec, err := h.service.Withdraw(ctx, chi.URLParam(r, "id"), doc)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordhandler.FromRecord(rec))
}

// InterestReceiptRequest is the wire shape of an interest receipt.
type InterestReceiptRequest struct {
	ScheduleUUID    string  `json:"schedule_uuid"`
	ReceivedDate    string  `json:"received_date"`
	ReceivedAmount  float64 `json:"received_amount"`
	BankID          string  `json:"bank_id"`
	BankAccountUUID string  `json:"bank_account_uuid"`
}

// Validate implements httputil.Validator.
func (r InterestReceiptRequest) Validate() error {
	return nil
}

// HandleReceiveInterest handles POST /insurances/{id}/receive-interest.
func (h *Handler) HandleReceiveInterest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[InterestReceiptRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.service.ReceiveInterest(ctx, chi.URLParam(r, "id"), InterestReceiptInput{
		ScheduleUUID:    req.ScheduleUUID,
		ReceivedDate:    req.ReceivedDate,
		ReceivedAmount:  req.ReceivedAmount,
		BankID:          req.BankID,
		BankAccountUUID: req.BankAccountUUID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordhandler.FromRecord(rec))
}
