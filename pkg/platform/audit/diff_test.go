package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildChanges_Reflexive(t *testing.T) {
	docs := []Document{
		nil,
		{},
		{"status": "draft"},
		{"owner": Document{"name": "PT Andalan", "accounts": []any{"a", "b"}}},
		{"schedule": []any{Document{"term": "1", "amount": "1000.5"}}},
	}
	for _, d := range docs {
		cs := BuildChanges(d, d)
		assert.Empty(t, cs.Summary.Fields)
		assert.True(t, cs.IsEmpty())
	}
}

func TestBuildChanges_TopLevelChangeAndAddition(t *testing.T) {
	before := Document{"status": "draft"}
	after := Document{"status": "active", "notes": "x"}

	cs := BuildChanges(before, after)

	require.Equal(t, []string{"notes", "status"}, cs.Summary.Fields)

	status := cs.Fields["status"]
	assert.Equal(t, KindChanged, status.Kind)
	assert.Equal(t, "draft", status.Old)
	assert.Equal(t, "active", status.New)

	notes := cs.Fields["notes"]
	assert.Equal(t, KindAdded, notes.Kind)
	assert.Nil(t, notes.Old)
	assert.Equal(t, "x", notes.New)
}

func TestBuildChanges_Removal(t *testing.T) {
	cs := BuildChanges(Document{"notes": "x"}, Document{})

	require.Equal(t, []string{"notes"}, cs.Summary.Fields)
	assert.Equal(t, KindRemoved, cs.Fields["notes"].Kind)
	assert.Equal(t, "x", cs.Fields["notes"].Old)
}

func TestBuildChanges_ArrayReplacedWholesale(t *testing.T) {
	before := Document{"schedule": []any{Document{"a": "1"}}}
	after := Document{"schedule": []any{Document{"a": "1"}, Document{"a": "2"}}}

	cs := BuildChanges(before, after)

	require.Equal(t, []string{"schedule"}, cs.Summary.Fields)
	change := cs.Fields["schedule"]
	assert.Equal(t, KindChanged, change.Kind)
	assert.Equal(t, before["schedule"], change.Old)
	assert.Equal(t, after["schedule"], change.New)
}

func TestBuildChanges_NestedDotPaths(t *testing.T) {
	before := Document{
		"placement": Document{"bank_id": "b1", "amount": "5000"},
	}
	after := Document{
		"placement": Document{"bank_id": "b2", "amount": "5000", "term": "12"},
	}

	cs := BuildChanges(before, after)

	require.Equal(t, []string{"placement.bank_id", "placement.term"}, cs.Summary.Fields)
	assert.Equal(t, KindChanged, cs.Fields["placement.bank_id"].Kind)
	assert.Equal(t, KindAdded, cs.Fields["placement.term"].Kind)
}

func TestBuildChanges_EmptyAgainstPopulatedEnumeratesEveryPath(t *testing.T) {
	populated := Document{
		"form_number": "DEPO/00001/202403",
		"placement":   Document{"bank_id": "b1", "amount": "5000"},
		"schedule":    []any{Document{"term": "1"}},
	}

	added := BuildChanges(Document{}, populated)
	require.Equal(t,
		[]string{"form_number", "placement.amount", "placement.bank_id", "schedule"},
		added.Summary.Fields)
	for _, path := range added.Summary.Fields {
		assert.Equal(t, KindAdded, added.Fields[path].Kind, path)
	}

	removed := BuildChanges(populated, Document{})
	require.Equal(t, added.Summary.Fields, removed.Summary.Fields)
	for _, path := range removed.Summary.Fields {
		assert.Equal(t, KindRemoved, removed.Fields[path].Kind, path)
	}
}

func TestBuildChanges_MixedTypeAtSamePath(t *testing.T) {
	before := Document{"interest": Document{"rate": "4.5"}}
	after := Document{"interest": "none"}

	cs := BuildChanges(before, after)

	require.Equal(t, []string{"interest"}, cs.Summary.Fields)
	assert.Equal(t, KindChanged, cs.Fields["interest"].Kind)
}

func TestBuildChanges_NullIsAValueNotAbsence(t *testing.T) {
	cs := BuildChanges(Document{"notes": "x"}, Document{"notes": nil})

	require.Equal(t, []string{"notes"}, cs.Summary.Fields)
	change := cs.Fields["notes"]
	assert.Equal(t, KindChanged, change.Kind)
	assert.Equal(t, "x", change.Old)
	assert.Nil(t, change.New)
}

func TestBuildChanges_UndefinedFoldsIntoAbsence(t *testing.T) {
	cs := BuildChanges(Document{"notes": Undefined}, Document{})
	assert.True(t, cs.IsEmpty())

	cs = BuildChanges(Document{}, Document{"notes": Undefined})
	assert.True(t, cs.IsEmpty())
}

func TestBuildChanges_NilInputsTreatedAsEmpty(t *testing.T) {
	assert.True(t, BuildChanges(nil, nil).IsEmpty())

	cs := BuildChanges(nil, Document{"status": "active"})
	require.Equal(t, []string{"status"}, cs.Summary.Fields)
	assert.Equal(t, KindAdded, cs.Fields["status"].Kind)
}

func TestBuildChanges_MergedPatchYieldsExactlyDifferingPaths(t *testing.T) {
	before := Document{
		"status": "active",
		"notes":  "keep",
		"placement": Document{
			"bank_id": "b1",
			"amount":  "5000",
		},
	}
	patch := Document{
		"status": "closed",          // differs
		"notes":  "keep",            // same value, must not appear
		"rate":   Undefined,         // not supplied, must not appear
		"placement": Document{
			"amount": "7000", // differs, nested
		},
	}

	cs := BuildChanges(before, MergeDefined(before, patch))

	assert.Equal(t, []string{"placement.amount", "status"}, cs.Summary.Fields)
}
