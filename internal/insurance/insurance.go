// Package insurance manages insurance policies: creation with a generated
// form number, policy extension chains, surrender, and receipt of scheduled
// interest payments.
package insurance

import (
	"context"

	"fundvault/internal/record"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Definition configures the shared record pipeline for insurances.
func Definition() record.Definition {
	return record.Definition{
		Module:       "insurances",
		Table:        "insurances",
		Counter:      "insurances",
		RefField:     "form_number",
		UniqueFields: []string{"form_number", "policy_number"},
		UUIDArrays:   []string{"interest_schedule"},
	}
}

// Service exposes insurance operations on top of the shared record engine.
type Service struct {
	*record.Engine
}

// NewService wires the insurance module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// Withdraw surrenders the policy and records the disbursement details from
// the patch.
func (s *Service) Withdraw(ctx context.Context, id string, patch audit.Document) (*record.Record, error) {
	return s.Apply(ctx, record.UpdateInput{
		ID:            id,
		Patch:         patch,
		Verb:          "withdraw",
		Action:        audit.ActionWithdraw,
		SystemReason:  "surrender policy",
		Status:        record.StatusWithdrawn,
		SkipNoopCheck: true,
		Require: func(current *record.Record) error {
			if current.Status == record.StatusWithdrawn {
				return dErrors.New(dErrors.CodeInvariantViolation, "policy was already surrendered")
			}
			return nil
		},
	})
}

// InterestReceiptInput records one received interest payment.
type InterestReceiptInput struct {
	ScheduleUUID    string
	ReceivedDate    string
	ReceivedAmount  float64
	BankID          string
	BankAccountUUID string
}

// ReceiveInterest marks a scheduled interest row received and recomputes the
// remaining amount.
func (s *Service) ReceiveInterest(ctx context.Context, id string, in InterestReceiptInput) (*record.Record, error) {
	if in.ScheduleUUID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "schedule uuid is required")
	}
	return s.Apply(ctx, record.UpdateInput{
		ID:           id,
		Verb:         "update",
		Action:       audit.ActionReceive,
		SystemReason: "receive interest",
		PatchFunc: func(current *record.Record) (audit.Document, error) {
			items, _ := current.Data["interest_schedule"].([]any)
			updated := make([]any, len(items))
			found := false

			for i, item := range items {
				row, _ := item.(audit.Document)
				if row == nil || row["uuid"] != in.ScheduleUUID {
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
				return nil, dErrors.Newf(dErrors.CodeNotFound, "interest row %s not found", in.ScheduleUUID)
			}
			return audit.Document{"interest_schedule": updated}, nil
		},
	})
}
