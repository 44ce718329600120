// Package bank manages the bank master records. Each bank carries nested
// accounts addressed by uuid from instrument documents.
package bank

import (
	"log/slog"

	"fundvault/internal/record"
	recordhandler "fundvault/internal/record/handler"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Definition configures the shared record pipeline for banks.
func Definition() record.Definition {
	return record.Definition{
		Module:       "banks",
		Table:        "banks",
		Counter:      "banks",
		RefField:     "name",
		UniqueFields: []string{"name"},
		UUIDArrays:   []string{"accounts"},
		Validate: func(doc audit.Document) error {
			name, _ := doc["name"].(string)
			if name == "" {
				return dErrors.WithDetails(dErrors.CodeValidation, "validation failed", map[string]string{
					"name": "is required",
				})
			}
			accounts, _ := doc["accounts"].([]any)
			for _, item := range accounts {
				row, _ := item.(audit.Document)
				if number, _ := row["number"].(string); number == "" {
					return dErrors.WithDetails(dErrors.CodeValidation, "validation failed", map[string]string{
						"accounts": "every account needs a number",
					})
				}
			}
			return nil
		},
	}
}

// Service exposes bank master operations.
type Service struct {
	*record.Engine
}

// NewService wires the bank master module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// NewHandler wires the bank HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *recordhandler.Handler {
	return recordhandler.New("banks", service, logger)
}
