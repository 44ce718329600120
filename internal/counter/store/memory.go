package store

import (
	"context"
	"fmt"
	"sync"

	"fundvault/internal/counter/models"
	"fundvault/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests. The mutex gives the same serialization the
// database statement gives the real store.
type InMemoryStore struct {
	mu       sync.Mutex
	counters map[string]*models.Counter
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{counters: make(map[string]*models.Counter)}
}

func (s *InMemoryStore) Get(_ context.Context, name string) (*models.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[name]
	if !ok {
		return nil, fmt.Errorf("counter %q: %w", name, sentinel.ErrNotFound)
	}
	snapshot := *c
	return &snapshot, nil
}

func (s *InMemoryStore) IncrementAndGet(_ context.Context, name string, by int64) (*models.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[name]
	if !ok {
		return nil, fmt.Errorf("counter %q: %w", name, sentinel.ErrNotFound)
	}
	c.Seq += by
	snapshot := *c
	return &snapshot, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]models.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := make([]models.Counter, 0, len(s.counters))
	for _, c := range s.counters {
		counters = append(counters, *c)
	}
	return counters, nil
}

func (s *InMemoryStore) Seed(_ context.Context, counters []models.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range counters {
		if _, exists := s.counters[c.Name]; exists {
			continue
		}
		seeded := c
		s.counters[c.Name] = &seeded
	}
	return nil
}
