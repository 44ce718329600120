// Package stock manages share holdings. One module covers regular, dividend
// and payment stocks through a kind discriminator; each kind keeps its own
// sequence counter and code prefix.
package stock

import (
	"fundvault/internal/record"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Kinds of stock records.
const (
	KindRegular  = "regular"
	KindDividend = "dividend"
	KindPayment  = "payment"
)

// countersByKind maps each kind to its sequence counter.
var countersByKind = map[string]string{
	KindRegular:  "stocks",
	KindDividend: "dividend_stocks",
	KindPayment:  "payment_stocks",
}

// Definition configures the shared record pipeline for stocks.
func Definition() record.Definition {
	return record.Definition{
		Module:       "stocks",
		Table:        "stocks",
		Counter:      "stocks",
		RefField:     "form_number",
		UniqueFields: []string{"form_number"},
		CounterFor: func(doc audit.Document) string {
			kind, _ := doc["kind"].(string)
			return countersByKind[kind]
		},
		Normalize: func(doc audit.Document) {
			if kind, _ := doc["kind"].(string); kind == "" {
				doc["kind"] = KindRegular
			}
		},
		Validate: func(doc audit.Document) error {
			kind, _ := doc["kind"].(string)
			if _, ok := countersByKind[kind]; !ok {
				return dErrors.Newf(dErrors.CodeValidation, "unknown stock kind %q", kind)
			}
			return nil
		},
	}
}

// Service exposes stock operations on top of the shared record engine.
type Service struct {
	*record.Engine
}

// NewService wires the stock module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}
