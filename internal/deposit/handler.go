package deposit

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fundvault/internal/record"
	recordhandler "fundvault/internal/record/handler"
	"fundvault/pkg/platform/httputil"
)

// Handler mounts deposit endpoints: the shared CRUD surface plus renewal and
// payment receipt operations.
type Handler struct {
	*recordhandler.Handler
	service *Service
	logger  *slog.Logger
}

// NewHandler wires the deposit HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	h := &Handler{service: service, logger: logger}
	h.Handler = recordhandler.New("deposits", service, logger,
		recordhandler.WithExtras(func(r chi.Router) {
			r.Post("/{id}/extend", h.HandleExtend)
			r.Post("/{id}/receive-interest", h.HandleReceiveInterest)
			r.Post("/{id}/receive-cashback", h.HandleReceiveCashback)
		}),
	)
	return h
}

// HandleExtend handles POST /deposits/{id}/extend: the predecessor is marked
// renewed and the body becomes the successor placement.
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

// ReceiptRequest is the wire shape of a payment receipt.
type ReceiptRequest struct {
	ScheduleUUID             string  `json:"schedule_uuid"`
	ReceivedDate             string  `json:"received_date"`
	ReceivedAmount           float64 `json:"received_amount"`
	BankID                   string  `json:"bank_id"`
	BankAccountUUID          string  `json:"bank_account_uuid"`
	AdditionalBankID         string  `json:"additional_bank_id"`
	AdditionalAccountUUID    string  `json:"additional_bank_account_uuid"`
	AdditionalReceivedDate   string  `json:"received_additional_payment_date"`
	AdditionalReceivedAmount float64 `json:"received_additional_payment_amount"`
}

// Validate implements httputil.Validator.
func (r ReceiptRequest) Validate() error {
	return nil
}

func (r ReceiptRequest) input() ReceiptInput {
	return ReceiptInput{
		ScheduleUUID:             r.ScheduleUUID,
		ReceivedDate:             r.ReceivedDate,
		ReceivedAmount:           r.ReceivedAmount,
		BankID:                   r.BankID,
		BankAccountUUID:          r.BankAccountUUID,
		AdditionalBankID:         r.AdditionalBankID,
		AdditionalAccountUUID:    r.AdditionalAccountUUID,
		AdditionalReceivedDate:   r.AdditionalReceivedDate,
		AdditionalReceivedAmount: r.AdditionalReceivedAmount,
	}
}

// HandleReceiveInterest handles POST /deposits/{id}/receive-interest.
func (h *Handler) HandleReceiveInterest(w http.ResponseWriter, r *http.Request) {
	h.handleReceipt(w, r, h.service.ReceiveInterest)
}

// HandleReceiveCashback handles POST /deposits/{id}/receive-cashback.
func (h *Handler) HandleReceiveCashback(w http.ResponseWriter, r *http.Request) {
	h.handleReceipt(w, r, h.service.ReceiveCashback)
}

func (h *Handler) handleReceipt(w http.ResponseWriter, r *http.Request,
	receive func(ctx context.Context, id string, in ReceiptInput) (*record.Record, error),
) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[ReceiptRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := receive(ctx, chi.URLParam(r, "id"), req.input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, recordhandler.FromRecord(rec))
}
