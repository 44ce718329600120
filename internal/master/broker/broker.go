// Package broker manages the broker master records used by stock holdings.
package broker

import (
	"log/slog"

	"fundvault/internal/record"
	recordhandler "fundvault/internal/record/handler"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
)

// Definition configures the shared record pipeline for brokers.
func Definition() record.Definition {
	return record.Definition{
		Module:       "brokers",
		Table:        "brokers",
		Counter:      "brokers",
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

// Service exposes broker master operations.
type Service struct {
	*record.Engine
}

// NewService wires the broker master module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// NewHandler wires the broker HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *recordhandler.Handler {
	return recordhandler.New("brokers", service, logger)
}
