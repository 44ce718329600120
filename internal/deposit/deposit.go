// Package deposit manages time-deposit placements: creation with a generated
// form number, renewal chains, and receipt of scheduled interest and cashback
// payments.
package deposit

import (
	"context"

	"fundvault/internal/record"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Definition configures the shared record pipeline for deposits.
func Definition() record.Definition {
	return record.Definition{
		Module:       "deposits",
		Table:        "deposits",
		Counter:      "deposits",
		RefField:     "form_number",
		UniqueFields: []string{"form_number"},
		UUIDArrays:   []string{"interest_schedule", "cashback_schedule"},
		Normalize:    normalize,
		Validate:     validate,
	}
}

// normalize drops the interest schedule on rollover placements; rolled-over
// interest compounds into the principal instead of paying out.
func normalize(doc audit.Document) {
	if interest, ok := doc["interest"].(audit.Document); ok {
		if rollover, _ := interest["is_rollover"].(bool); rollover {
			doc["interest_schedule"] = []any{}
		}
	}
}

// validate requires the interest schedule to pay out exactly the net interest
// amount, unless the deposit rolls over.
func validate(doc audit.Document) error {
	interest, _ := doc["interest"].(audit.Document)
	if interest == nil {
		return nil
	}
	if rollover, _ := interest["is_rollover"].(bool); rollover {
		return nil
	}

	schedule, _ := doc["interest_schedule"].([]any)
	if len(schedule) == 0 {
		return nil
	}

	var total float64
	for _, item := range schedule {
		row, _ := item.(audit.Document)
		total += record.NumberOf(row["amount"])
	}
	total = record.Round(total, 2)

	net := record.Round(record.NumberOf(interest["net_amount"]), 2)
	if total != net {
		return dErrors.Newf(dErrors.CodeBadRequest,
			"total interest schedule amount (%v) does not match net amount (%v)", total, net)
	}
	return nil
}

// Service exposes deposit operations on top of the shared record engine.
type Service struct {
	*record.Engine
}

// NewService wires the deposit module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// ReceiptInput carries one received payment against a scheduled row.
type ReceiptInput struct {
	ScheduleUUID             string
	ReceivedDate             string
	ReceivedAmount           float64
	BankID                   string
	BankAccountUUID          string
	AdditionalBankID         string
	AdditionalAccountUUID    string
	AdditionalReceivedDate   string
	AdditionalReceivedAmount float64
}

// ReceiveInterest records a received interest payment against a schedule row
// and recomputes the remaining amount.
func (s *Service) ReceiveInterest(ctx context.Context, id string, in ReceiptInput) (*record.Record, error) {
	return s.receive(ctx, id, "interest_schedule", in)
}

// ReceiveCashback records a received cashback payment against a schedule row.
func (s *Service) ReceiveCashback(ctx context.Context, id string, in ReceiptInput) (*record.Record, error) {
	return s.receive(ctx, id, "cashback_schedule", in)
}

func (s *Service) receive(ctx context.Context, id, scheduleField string, in ReceiptInput) (*record.Record, error) {
	if in.ScheduleUUID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "schedule uuid is required")
	}
	return s.Apply(ctx, record.UpdateInput{
		ID:           id,
		Verb:         "update",
		Action:       audit.ActionReceive,
		SystemReason: "receive payment",
		PatchFunc: func(current *record.Record) (audit.Document, error) {
			schedule, err := receiptPatch(current, scheduleField, in)
			if err != nil {
				return nil, err
			}
			return audit.Document{scheduleField: schedule}, nil
		},
	})
}

// receiptPatch rewrites the schedule array with the receipt applied to the
// addressed row. Arrays diff as whole units, so the patch replaces the array.
func receiptPatch(current *record.Record, scheduleField string, in ReceiptInput) ([]any, error) {
	items, _ := current.Data[scheduleField].([]any)
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
		if in.AdditionalBankID != "" {
			next["additional_bank_id"] = in.AdditionalBankID
			next["additional_bank_account_uuid"] = in.AdditionalAccountUUID
			next["received_additional_payment_date"] = in.AdditionalReceivedDate
			next["received_additional_payment_amount"] = in.AdditionalReceivedAmount
		}
		next["remaining_amount"] = record.Round(
			record.NumberOf(row["amount"])-in.ReceivedAmount-in.AdditionalReceivedAmount, 2)
		updated[i] = next
	}

	if !found {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "schedule row %s not found", in.ScheduleUUID)
	}
	return updated, nil
}
