// Package issuer manages the issuer master records referenced by bonds and
// insurance policies.
package issuer

import (
	"log/slog"

	"fundvault/internal/record"
	recordhandler "fundvault/internal/record/handler"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Definition configures the shared record pipeline for issuers.
func Definition() record.Definition {
	return record.Definition{
		Module:       "issuers",
		Table:        "issuers",
		Counter:      "issuers",
		RefField:     "name",
		UniqueFields: []string{"name"},
		Validate: func(doc audit.Document) error {
			if name, _ := doc["name"].(string); name == "" {
				return dErrors.WithDetails(dErrors.CodeValidation, "validation failed", map[string]string{
					"name": "is required",
				})
			}
			return nil
		},
	}
}

// Service exposes issuer master operations.
type Service struct {
	*record.Engine
}

// NewService wires the issuer master module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// NewHandler wires the issuer HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *recordhandler.Handler {
	return recordhandler.New("issuers", service, logger)
}
