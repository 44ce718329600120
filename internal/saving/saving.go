// Package saving manages savings accounts. Accounts may start as drafts while
// paperwork is pending; drafts stay editable until they are activated.
package saving

import (
	"context"

	"fundvault/internal/record"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Definition configures the shared record pipeline for savings.
func Definition() record.Definition {
	return record.Definition{
		Module:       "savings",
		Table:        "savings",
		Counter:      "savings",
		RefField:     "form_number",
		UniqueFields: []string{"form_number"},
		UUIDArrays:   []string{"cashback_schedule"},
	}
}

// Service exposes savings operations on top of the shared record engine.
type Service struct {
	*record.Engine
}

// NewService wires the savings module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// UpdateDraft edits a draft account. With activate set, the draft goes active
// in the same operation and the full document is validated.
func (s *Service) UpdateDraft(ctx context.Context, id string, patch audit.Document, activate bool) (*record.Record, error) {
	in := record.UpdateInput{
		ID:           id,
		Patch:        patch,
		Verb:         "update",
		Action:       audit.ActionUpdate,
		SystemReason: "update draft",
		Require: func(current *record.Record) error {
			if current.Status != record.StatusDraft {
				return dErrors.New(dErrors.CodeInvariantViolation, "only draft accounts can be edited this way")
			}
			return nil
		},
	}
	if activate {
		in.Status = record.StatusActive
		in.SkipNoopCheck = true
	}
	return s.Apply(ctx, in)
}

// CashbackReceiptInput records one received cashback payment.
type CashbackReceiptInput struct {
	ScheduleUUID   string
	ReceivedDate   string
	ReceivedAmount float64
}

// ReceiveCashback marks a scheduled cashback row received.
func (s *Service) ReceiveCashback(ctx context.Context, id string, in CashbackReceiptInput) (*record.Record, error) {
	if in.ScheduleUUID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "schedule uuid is required")
	}
	return s.Apply(ctx, record.UpdateInput{
		ID:           id,
		Verb:         "update",
		Action:       audit.ActionReceive,
		SystemReason: "receive cashback",
		PatchFunc: func(current *record.Record) (audit.Document, error) {
			items, _ := current.Data["cashback_schedule"].([]any)
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
				next["remaining_amount"] = record.Round(
					record.NumberOf(row["amount"])-in.ReceivedAmount, 2)
				updated[i] = next
			}

			if !found {
				return nil, dErrors.Newf(dErrors.CodeNotFound, "cashback row %s not found", in.ScheduleUUID)
			}
			return audit.Document{"cashback_schedule": updated}, nil
		},
	})
}
