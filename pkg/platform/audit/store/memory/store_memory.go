package memory

import (
	"context"
	"sync"

	audit "fundvault/pkg/platform/audit"
)

type entityKey struct {
	entityType string
	entityID   string
}

// InMemoryStore keeps audit entries in memory for unit tests. Append-only, like
// the real store.
type InMemoryStore struct {
	mu      sync.RWMutex
	ordered []audit.Entry
	entries map[entityKey][]audit.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[entityKey][]audit.Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := entityKey{entityType: entry.EntityType, entityID: entry.EntityID}
	s.entries[key] = append(s.entries[key], entry)
	s.ordered = append(s.ordered, entry)
	return nil
}

func (s *InMemoryStore) ListByEntity(_ context.Context, entityType, entityID string) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key := entityKey{entityType: entityType, entityID: entityID}
	return append([]audit.Entry{}, s.entries[key]...), nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.ordered) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Entry{}, s.ordered[start:]...), nil
}

// All returns every appended entry in insertion order. Test helper.
func (s *InMemoryStore) All() []audit.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Entry{}, s.ordered...)
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordered = nil
	s.entries = make(map[entityKey][]audit.Entry)
}
