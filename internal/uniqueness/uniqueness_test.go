package uniqueness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "fundvault/pkg/domain-errors"
)

func TestInMemoryChecker_Ensure(t *testing.T) {
	ctx := context.Background()

	t.Run("free value passes", func(t *testing.T) {
		c := NewInMemory()
		assert.NoError(t, c.Ensure(ctx, "bonds", "form_number", "BOND/00001/202403", ""))
	})

	t.Run("taken value conflicts with field detail", func(t *testing.T) {
		c := NewInMemory()
		c.Take("bonds", "form_number", "BOND/00001/202403", "rec-1")

		err := c.Ensure(ctx, "bonds", "form_number", "BOND/00001/202403", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

		var de *dErrors.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "already exists", de.Details["form_number"])
	})

	t.Run("record does not conflict with itself on update", func(t *testing.T) {
		c := NewInMemory()
		c.Take("deposits", "bilyet_number", "CERT-9", "rec-1")

		assert.NoError(t, c.Ensure(ctx, "deposits", "bilyet_number", "CERT-9", "rec-1"))
		assert.Error(t, c.Ensure(ctx, "deposits", "bilyet_number", "CERT-9", "rec-2"))
	})

	t.Run("empty value is skipped", func(t *testing.T) {
		c := NewInMemory()
		assert.NoError(t, c.Ensure(ctx, "bonds", "form_number", "", ""))
	})

	t.Run("unlisted table column is rejected", func(t *testing.T) {
		c := NewInMemory()
		err := c.Ensure(ctx, "audit_logs", "operation_id", "x", "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
