// Package bond manages bond holdings: purchase records with a generated form
// number, coupon receipt against the coupon schedule, and withdrawal with
// disbursement details.
package bond

import (
	"context"

	"fundvault/internal/record"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Definition configures the shared record pipeline for bonds.
func Definition() record.Definition {
	return record.Definition{
		Module:       "bonds",
		Table:        "bonds",
		Counter:      "bonds",
		RefField:     "form_number",
		UniqueFields: []string{"form_number"},
		UUIDArrays:   []string{"received_coupons"},
	}
}

// Service exposes bond operations on top of the shared record engine.
type Service struct {
	*record.Engine
}

// NewService wires the bond module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// Withdraw closes the position and records the disbursement details carried
// in the patch (selling price, disbursement bank and amounts).
func (s *Service) Withdraw(ctx context.Context, id string, patch audit.Document) (*record.Record, error) {
	return s.Apply(ctx, record.UpdateInput{
		ID:            id,
		Patch:         patch,
		Verb:          "withdraw",
		Action:        audit.ActionWithdraw,
		SystemReason:  "withdraw holding",
		Status:        record.StatusWithdrawn,
		SkipNoopCheck: true,
		Require: func(current *record.Record) error {
			if current.Status == record.StatusWithdrawn {
				return dErrors.New(dErrors.CodeInvariantViolation, "bond was already withdrawn")
			}
			return nil
		},
	})
}

// CouponReceiptInput records one received coupon payment.
type CouponReceiptInput struct {
	CouponUUID      string
	ReceivedDate    string
	ReceivedAmount  float64
	BankID          string
	BankAccountUUID string
}

// ReceiveCoupon marks a scheduled coupon as received and recomputes its
// remaining amount.
func (s *Service) ReceiveCoupon(ctx context.Context, id string, in CouponReceiptInput) (*record.Record, error) {
	if in.CouponUUID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "coupon uuid is required")
	}
	return s.Apply(ctx, record.UpdateInput{
		ID:           id,
		Verb:         "update",
		Action:       audit.ActionReceive,
		SystemReason: "receive coupon",
		PatchFunc: func(current *record.Record) (audit.Document, error) {
			coupons, _ := current.Data["received_coupons"].([]any)
			updated := make([]any, len(coupons))
			found := false

			for i, item := range coupons {
				row, _ := item.(audit.Document)
				if row == nil || row["uuid"] != in.CouponUUID {
					updated[i] = item
					continue
				}
				found = true

				next := audit.Document{}
				for k, v := range row {
					next[k] = v
				}
				next["received_date"] = in.ReceivedDate
				next["received_amount"] = in.ReceivedAmount
				if in.BankID != "" {
					next["bank_id"] = in.BankID
				}
				if in.BankAccountUUID != "" {
					next["bank_account_uuid"] = in.BankAccountUUID
				}
				next["remaining_amount"] = record.Round(
					record.NumberOf(row["amount"])-in.ReceivedAmount, 2)
				updated[i] = next
			}

			if !found {
				return nil, dErrors.Newf(dErrors.CodeNotFound, "coupon %s not found", in.CouponUUID)
			}
			return audit.Document{"received_coupons": updated}, nil
		},
	})
}

// ListCoupons returns the coupon schedule of one bond.
func (s *Service) ListCoupons(ctx context.Context, id string) ([]audit.Document, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	items, _ := rec.Data["received_coupons"].([]any)
	coupons := make([]audit.Document, 0, len(items))
	for _, item := range items {
		if row, ok := item.(audit.Document); ok {
			coupons = append(coupons, row)
		}
	}
	return coupons, nil
}
