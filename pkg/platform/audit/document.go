package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is a generic nested record snapshot. Values are restricted to the
// canonical JSON set: nil, bool, float64, string, []any and map[string]any.
// A key that is absent means "not supplied"; an explicit nil means "set to null".
type Document = map[string]any

// undefined is the type of the Undefined sentinel.
type undefined struct{}

// Undefined marks a patch key as "not supplied" even though the key is present.
// MergeDefined and BuildChanges treat it exactly like an absent key, keeping the
// undefined-vs-null distinction explicit instead of overloading nil.
var Undefined = undefined{}

// DocumentOf normalizes any JSON-serializable value into a Document via a
// marshal/unmarshal round trip, so diffing never compares a typed struct field
// against its decoded counterpart. Returns an empty Document for nil input.
func DocumentOf(v any) (Document, error) {
	if v == nil {
		return Document{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	normalizeNumbers(doc)
	return doc, nil
}

// Value normalizes a single patch value the same way DocumentOf normalizes a
// whole snapshot. Undefined passes through untouched.
func Value(v any) any {
	if v == nil {
		return nil
	}
	if _, ok := v.(undefined); ok {
		return Undefined
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return v
	}
	return normalizeValue(out)
}

// json.Number keeps integer fidelity through the round trip; canonical form is
// the string representation so "1" and 1.0 never alias.
func normalizeNumbers(doc Document) {
	for k, v := range doc {
		doc[k] = normalizeValue(v)
	}
}

func normalizeValue(v any) any {
	switch tv := v.(type) {
	case json.Number:
		return tv.String()
	case map[string]any:
		normalizeNumbers(tv)
		return tv
	case []any:
		for i, item := range tv {
			tv[i] = normalizeValue(item)
		}
		return tv
	default:
		return v
	}
}

// MergeDefined returns a new document equal to base with every supplied patch
// key overwritten. Keys absent from patch, or present with the Undefined
// sentinel, never overwrite base. Nested plain objects merge recursively;
// arrays and scalar values are replaced wholesale.
//
// Callers use it to build a realistic "after" snapshot from a partial update
// payload without re-fetching every field.
func MergeDefined(base, patch Document) Document {
	out := make(Document, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		if _, skip := v.(undefined); skip {
			continue
		}
		baseDoc, baseIsDoc := out[k].(map[string]any)
		patchDoc, patchIsDoc := v.(map[string]any)
		if baseIsDoc && patchIsDoc {
			out[k] = MergeDefined(baseDoc, patchDoc)
			continue
		}
		out[k] = v
	}
	return out
}
