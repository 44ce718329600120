package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundvault/internal/counter/models"
	"fundvault/pkg/platform/sentinel"
)

func seededStore(t *testing.T) *InMemoryStore {
	t.Helper()
	s := NewInMemory()
	require.NoError(t, s.Seed(context.Background(), models.Seed()))
	return s
}

func TestInMemoryStore_Get(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	t.Run("returns seeded counter", func(t *testing.T) {
		c, err := s.Get(ctx, "bonds")
		require.NoError(t, err)
		assert.Equal(t, "bonds", c.Name)
		assert.Equal(t, int64(0), c.Seq)
	})

	t.Run("unknown name is not found", func(t *testing.T) {
		_, err := s.Get(ctx, "widgets")
		require.Error(t, err)
		assert.True(t, errors.Is(err, sentinel.ErrNotFound))
	})

	t.Run("returned counter is a snapshot", func(t *testing.T) {
		c, err := s.Get(ctx, "bonds")
		require.NoError(t, err)
		c.Seq = 999

		fresh, err := s.Get(ctx, "bonds")
		require.NoError(t, err)
		assert.Equal(t, int64(0), fresh.Seq)
	})
}

func TestInMemoryStore_IncrementAndGet(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	c, err := s.IncrementAndGet(ctx, "deposits", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Seq)

	c, err = s.IncrementAndGet(ctx, "deposits", 4)
	require.NoError(t, err)
	assert.Equal(t, int64(5), c.Seq)

	_, err = s.IncrementAndGet(ctx, "widgets", 1)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestInMemoryStore_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)

	_, err := s.IncrementAndGet(ctx, "stocks", 3)
	require.NoError(t, err)

	require.NoError(t, s.Seed(ctx, models.Seed()))

	c, err := s.Get(ctx, "stocks")
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Seq, "re-seeding must not reset positions")
}

func TestInMemoryStore_List(t *testing.T) {
	s := seededStore(t)

	counters, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, counters, len(models.Seed()))
}
