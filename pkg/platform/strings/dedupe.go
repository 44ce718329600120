// Package strings holds small string-slice helpers shared across modules.
package strings

import (
	"strings"
)

// DedupeAndTrim trims whitespace from each element and drops blanks and
// duplicates, keeping first-occurrence order. Role permission lists go
// through this before storage so equal grants compare equal.
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
