package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDefined_UndefinedNeverOverwrites(t *testing.T) {
	base := Document{"a": "1", "b": "2"}
	patch := Document{"b": Undefined, "c": "3"}

	merged := MergeDefined(base, patch)

	assert.Equal(t, Document{"a": "1", "b": "2", "c": "3"}, merged)
}

func TestMergeDefined_DoesNotMutateInputs(t *testing.T) {
	base := Document{"a": "1"}
	patch := Document{"a": "2"}

	merged := MergeDefined(base, patch)

	assert.Equal(t, "2", merged["a"])
	assert.Equal(t, "1", base["a"])
	assert.Equal(t, "2", patch["a"])
}

func TestMergeDefined_NestedObjectsMergeRecursively(t *testing.T) {
	base := Document{
		"placement": Document{"bank_id": "b1", "amount": "5000"},
	}
	patch := Document{
		"placement": Document{"amount": "7000"},
	}

	merged := MergeDefined(base, patch)

	placement, ok := merged["placement"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b1", placement["bank_id"])
	assert.Equal(t, "7000", placement["amount"])
}

func TestMergeDefined_ArraysReplacedWholesale(t *testing.T) {
	base := Document{"schedule": []any{"jan", "feb"}}
	patch := Document{"schedule": []any{"mar"}}

	merged := MergeDefined(base, patch)

	assert.Equal(t, []any{"mar"}, merged["schedule"])
}

func TestMergeDefined_NullOverwrites(t *testing.T) {
	base := Document{"notes": "x"}
	patch := Document{"notes": nil}

	merged := MergeDefined(base, patch)

	v, ok := merged["notes"]
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestMergeDefined_ScalarReplacesNestedObject(t *testing.T) {
	base := Document{"interest": Document{"rate": "4.5"}}
	patch := Document{"interest": "none"}

	merged := MergeDefined(base, patch)

	assert.Equal(t, "none", merged["interest"])
}

func TestDocumentOf_NormalizesStructSnapshots(t *testing.T) {
	type placement struct {
		BankID string  `json:"bank_id"`
		Amount float64 `json:"amount"`
	}
	type record struct {
		FormNumber string    `json:"form_number"`
		Placement  placement `json:"placement"`
		Notes      *string   `json:"notes,omitempty"`
	}

	doc, err := DocumentOf(record{
		FormNumber: "DEPO/00001/202403",
		Placement:  placement{BankID: "b1", Amount: 5000},
	})
	require.NoError(t, err)

	assert.Equal(t, "DEPO/00001/202403", doc["form_number"])
	nested, ok := doc["placement"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "b1", nested["bank_id"])
	assert.Equal(t, "5000", nested["amount"])
	_, hasNotes := doc["notes"]
	assert.False(t, hasNotes)
}

func TestDocumentOf_NilYieldsEmptyDocument(t *testing.T) {
	doc, err := DocumentOf(nil)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestDocumentOf_RoundTripIsDiffStable(t *testing.T) {
	type record struct {
		Amount float64 `json:"amount"`
		Count  int     `json:"count"`
	}

	a, err := DocumentOf(record{Amount: 10.5, Count: 3})
	require.NoError(t, err)
	b, err := DocumentOf(record{Amount: 10.5, Count: 3})
	require.NoError(t, err)

	assert.True(t, BuildChanges(a, b).IsEmpty())
}

func TestValue_NormalizesLikeDocumentOf(t *testing.T) {
	assert.Equal(t, "42", Value(42))
	assert.Equal(t, "10.5", Value(10.5))
	assert.Equal(t, "x", Value("x"))
	assert.Nil(t, Value(nil))
	assert.Equal(t, Undefined, Value(Undefined))

	v := Value([]string{"a", "b"})
	assert.Equal(t, []any{"a", "b"}, v)
}
