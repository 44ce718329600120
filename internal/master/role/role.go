// Package role manages the role master records. A role's permissions list is
// what the authorization layer checks "module:verb" grants against.
package role

import (
	"log/slog"
	"strings"

	"fundvault/internal/record"
	recordhandler "fundvault/internal/record/handler"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
	pstrings "fundvault/pkg/platform/strings"
)

// Definition configures the shared record pipeline for roles.
func Definition() record.Definition {
	return record.Definition{
		Module:       "roles",
		Table:        "roles",
		Counter:      "roles",
		RefField:     "name",
		UniqueFields: []string{"name"},
		Normalize:    normalize,
		Validate:     validate,
	}
}

// normalize collapses duplicate and blank permission entries so two grants of
// the same permission cannot drift apart in the stored document.
func normalize(doc audit.Document) {
	raw, ok := doc["permissions"].([]any)
	if !ok {
		return
	}
	entries := make([]string, 0, len(raw))
	for _, item := range raw {
		p, ok := item.(string)
		if !ok {
			// Leave malformed lists untouched so validation reports them.
			return
		}
		entries = append(entries, p)
	}
	deduped := pstrings.DedupeAndTrim(entries)
	permissions := make([]any, 0, len(deduped))
	for _, p := range deduped {
		permissions = append(permissions, p)
	}
	doc["permissions"] = permissions
}

func validate(doc audit.Document) error {
	if name, _ := doc["name"].(string); name == "" {
		return dErrors.WithDetails(dErrors.CodeValidation, "validation failed", map[string]string{
			"name": "is required",
		})
	}

	permissions, _ := doc["permissions"].([]any)
	for _, item := range permissions {
		p, ok := item.(string)
		if !ok || !validPermission(p) {
			return dErrors.WithDetails(dErrors.CodeValidation, "validation failed", map[string]string{
				"permissions": "entries must look like module:verb or module:*",
			})
		}
	}
	return nil
}

func validPermission(p string) bool {
	module, verb, ok := strings.Cut(p, ":")
	return ok && module != "" && verb != "" && !strings.Contains(verb, ":")
}

// Service exposes role master operations.
type Service struct {
	*record.Engine
}

// NewService wires the role master module.
func NewService(deps record.Deps) (*Service, error) {
	engine, err := record.NewEngine(Definition(), deps)
	if err != nil {
		return nil, err
	}
	return &Service{Engine: engine}, nil
}

// NewHandler wires the role HTTP surface.
func NewHandler(service *Service, logger *slog.Logger) *recordhandler.Handler {
	return recordhandler.New("roles", service, logger)
}
