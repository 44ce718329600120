package audit

import (
	"reflect"
	"sort"
)

// BuildChanges walks before and after field-path by field-path and returns the
// structural difference. Nested plain objects contribute dot-notation leaf
// paths; arrays are compared by deep value equality as whole units, so an array
// that changed at all is one changed path, never a per-index diff.
//
// Paths are reported in lexicographic order, which keeps the summary
// deterministic for identical inputs. nil inputs are treated as empty
// documents; the function never fails.
func BuildChanges(before, after Document) ChangeSet {
	cs := ChangeSet{Fields: make(map[string]FieldChange)}
	diffDocs("", before, after, &cs)
	sort.Strings(cs.Summary.Fields)
	return cs
}

func diffDocs(prefix string, before, after Document, cs *ChangeSet) {
	for _, key := range unionKeys(before, after) {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		bv, bok := definedValue(before, key)
		av, aok := definedValue(after, key)

		bDoc, bIsDoc := bv.(map[string]any)
		aDoc, aIsDoc := av.(map[string]any)

		switch {
		case (bIsDoc || !bok) && (aIsDoc || !aok) && (bIsDoc || aIsDoc):
			// At least one side is a nested object; recurse so every nested
			// path is enumerated even against an absent counterpart.
			diffDocs(path, bDoc, aDoc, cs)
		case !bok && aok:
			cs.record(path, FieldChange{Kind: KindAdded, New: av})
		case bok && !aok:
			cs.record(path, FieldChange{Kind: KindRemoved, Old: bv})
		case bok && aok && !deepEqual(bv, av):
			cs.record(path, FieldChange{Kind: KindChanged, Old: bv, New: av})
		}
	}
}

func (c *ChangeSet) record(path string, change FieldChange) {
	c.Fields[path] = change
	c.Summary.Fields = append(c.Summary.Fields, path)
}

// definedValue looks a key up while folding the Undefined sentinel into
// plain absence.
func definedValue(doc Document, key string) (any, bool) {
	if doc == nil {
		return nil, false
	}
	v, ok := doc[key]
	if !ok {
		return nil, false
	}
	if _, isUndefined := v.(undefined); isUndefined {
		return nil, false
	}
	return v, true
}

func unionKeys(before, after Document) []string {
	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, dup := before[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// deepEqual is structural equality over the canonical JSON value set. Arrays
// are equal only when every element is deep-equal in order.
func deepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
