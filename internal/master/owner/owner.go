// Package owner manages the owner master records: the persons and entities
// instruments are held for.
package owner

import (
	"log/slog"

	"fundvault/internal/record"
	recordhandler "fundvault/internal/record/handler"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Definition configures the shared record pipeline for owners.
func Definition() record.Definition {
	return record.Definition{
		Module:       "owners",
		Table:        "owners",
		Counter:      "owners",
		RefField:     "name",
		UniqueFields: []string{"name"},
		Validate:     requireName,
	}
}

func requireName(doc audit.Document) error {
	if name, _ := doc["name"].(string); name == "" {
		return dErrors.WithDetails(dErrors.CodeValidation, "validation failed", map[string]string{
			"name": "is required",
		})
	}
	return nil
}

// Service exposes owner master operations.
type Service struct {
	*record.Engine
}

// NewService wires the owner master module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// NewHandler wires the owner HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *recordhandler.Handler {
	return recordhandler.New("owners", service, logger)
}
