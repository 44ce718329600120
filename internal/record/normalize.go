package record

import (
	"strings"

	"github.com/google/uuid"

	"fundvault/pkg/platform/audit"
)

// TrimStrings trims whitespace on every string value in the document,
// recursing into nested objects and arrays. Mutates doc in place.
func TrimStrings(doc audit.Document) {
	for k, v := range doc {
		doc[k] = trimValue(v)
	}
}

func trimValue(v any) any {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case audit.Document:
		TrimStrings(val)
		return val
	case []any:
		for i, item := range val {
			val[i] = trimValue(item)
		}
		return val
	default:
		return v
	}
}

// EnsureUUIDs assigns a time-ordered uuid to every element of the named array
// fields that does not carry one. Schedule and account rows are addressed by
// this uuid on later receive operations.
func EnsureUUIDs(doc audit.Document, fields ...string) {
	for _, field := range fields {
		items, ok := doc[field].([]any)
		if !ok {
			continue
		}
		for _, item := range items {
			elem, ok := item.(audit.Document)
			if !ok {
				continue
			}
			if s, ok := elem["uuid"].(string); ok && s != "" {
				continue
			}
			elem["uuid"] = NewID()
		}
	}
}

// NewID returns a time-ordered unique identifier.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
