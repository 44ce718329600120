package bond

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	recordhandler "fundvault/internal/record/handler"
	"fundvault/pkg/platform/httputil"
)

// Handler mounts bond endpoints: the shared CRUD surface plus withdrawal and
// coupon operations.
type Handler struct {
	*recordhandler.Handler
	service *Service
	logger  *slog.Logger
}

// NewHandler wires the bond HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	h := &Handler{service: service, logger: logger}
	h.Handler = recordhandler.New("bonds", service, logger,
		recordhandler.WithExtras(func(r chi.Router) {
			r.Post("/{id}/withdraw", h.HandleWithdraw)
			r.Post("/{id}/receive-coupon", h.HandleReceiveCoupon)
			r.Get("/{id}/coupons", h.HandleListCoupons)
		}),
	)
	return h
}

// HandleWithdraw handles POST /bonds/{id}/withdraw requests.
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

// CouponReceiptRequest is the wire shape of a coupon receipt.
type CouponReceiptRequest struct {
	CouponUUID      string  `json:"coupon_uuid"`
	ReceivedDate    string  `json:"received_date"`
	ReceivedAmount  float64 `json:"received_amount"`
	BankID          string  `json:"bank_id"`
	BankAccountUUID string  `json:"bank_account_uuid"`
}

// Validate implements httputil.Validator.
func (r CouponReceiptRequest) Validate() error {
	return nil
}

// HandleReceiveCoupon handles POST /bonds/{id}/receive-coupon requests.
func (h *Handler) HandleReceiveCoupon(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, ok := httputil.DecodeAndPrepare[CouponReceiptRequest](w, r, h.logger)
	if !ok {
		return
	}

	rec, err := h.service.ReceiveCoupon(ctx, chi.URLParam(r, "id"), CouponReceiptInput{
		CouponUUID:      req.CouponUUID,
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

// HandleListCoupons handles GET /bonds/{id}/coupons requests.
func (h *Handler) HandleListCoupons(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	coupons, err := h.service.ListCoupons(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, coupons)
}
