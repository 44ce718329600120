package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"fundvault/internal/counter/models"
	"fundvault/internal/counter/store"
	dErrors "fundvault/pkg/domain-errors"
)

type CounterServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
}

func TestCounterServiceSuite(t *testing.T) {
	suite.Run(t, new(CounterServiceSuite))
}

func (s *CounterServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.Require().NoError(s.store.Seed(context.Background(), models.Seed()))

	var err error
	s.service, err = New(s.store)
	s.Require().NoError(err)
}

func (s *CounterServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil)
		s.Error(err)
		s.Contains(err.Error(), "counter store is required")
	})
}

func (s *CounterServiceSuite) TestIncrement() {
	ctx := context.Background()

	s.Run("unseeded counter fails with not found", func() {
		err := s.service.Increment(ctx, "widgets", 1)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("non-positive increment rejected", func() {
		err := s.service.Increment(ctx, "bonds", 0)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("advances the stored seq", func() {
		s.Require().NoError(s.service.Increment(ctx, "bonds", 3))
		c, err := s.store.Get(ctx, "bonds")
		s.Require().NoError(err)
		s.Equal(int64(3), c.Seq)
	})
}

func (s *CounterServiceSuite) TestReserve() {
	ctx := context.Background()
	ref := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	s.Run("first reservation renders ordinal one", func() {
		res, err := s.service.Reserve(ctx, "deposits", ref)
		s.Require().NoError(err)
		s.Equal("DEPO/00001/202403", res.Code)
		s.Equal(int64(1), res.Seq)
	})

	s.Run("reservation advances the stored seq", func() {
		res, err := s.service.Reserve(ctx, "deposits", ref)
		s.Require().NoError(err)
		s.Equal("DEPO/00002/202403", res.Code)

		c, err := s.store.Get(ctx, "deposits")
		s.Require().NoError(err)
		s.Equal(res.Seq, c.Seq)
	})

	s.Run("roles seeded at one continue from two", func() {
		res, err := s.service.Reserve(ctx, "roles", ref)
		s.Require().NoError(err)
		s.Equal("ROLE/0002", res.Code)
	})

	s.Run("unseeded counter fails with not found", func() {
		_, err := s.service.Reserve(ctx, "widgets", ref)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// Exactly-once issuance: N concurrent reservations produce N distinct ordinals
// and leave the counter advanced by exactly N.
func (s *CounterServiceSuite) TestReserveConcurrentExactlyOnce() {
	ctx := context.Background()
	ref := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	const callers = 64

	var mu sync.Mutex
	seen := make(map[int64]struct{}, callers)
	codes := make(map[string]struct{}, callers)

	g, gctx := errgroup.WithContext(ctx)
	for range callers {
		g.Go(func() error {
			res, err := s.service.Reserve(gctx, "bonds", ref)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			seen[res.Seq] = struct{}{}
			codes[res.Code] = struct{}{}
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	s.Len(seen, callers, "every caller must observe a distinct ordinal")
	s.Len(codes, callers, "every rendered code must be distinct")

	c, err := s.store.Get(ctx, "bonds")
	s.Require().NoError(err)
	s.Equal(int64(callers), c.Seq, "no lost updates")
}

func (s *CounterServiceSuite) TestPreview() {
	ctx := context.Background()
	ref := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	s.Run("renders next code without reserving", func() {
		code, err := s.service.Preview(ctx, "savings", ref)
		s.Require().NoError(err)
		s.Equal("SAV/00001/202403", code)

		c, err := s.store.Get(ctx, "savings")
		s.Require().NoError(err)
		s.Equal(int64(0), c.Seq, "preview must not advance the counter")
	})

	s.Run("preview then reserve agree when uncontended", func() {
		previewed, err := s.service.Preview(ctx, "insurances", ref)
		s.Require().NoError(err)

		res, err := s.service.Reserve(ctx, "insurances", ref)
		s.Require().NoError(err)
		s.Equal(previewed, res.Code)
	})
}

func (s *CounterServiceSuite) TestSeedDefaultsIsIdempotent() {
	ctx := context.Background()

	s.Require().NoError(s.service.Increment(ctx, "banks", 5))
	s.Require().NoError(s.service.SeedDefaults(ctx))

	c, err := s.store.Get(ctx, "banks")
	s.Require().NoError(err)
	s.Equal(int64(5), c.Seq, "re-seeding must not reset sequence positions")
}
