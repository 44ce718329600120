package record

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fundvault/pkg/platform/audit"
	"fundvault/pkg/platform/sentinel"
)

// InMemoryStore backs unit tests. Records are deep-copied on the way in and
// out so callers can never alias stored documents.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("record %q: %w", rec.ID, sentinel.ErrConflict)
	}
	clone, err := cloneRecord(rec)
	if err != nil {
		return err
	}
	s.records[rec.ID] = clone
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record %q: %w", id, sentinel.ErrNotFound)
	}
	clone, err := cloneRecord(rec)
	if err != nil {
		return nil, err
	}
	return &clone, nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []Record
	for _, rec := range s.records {
		if !filter.IncludeArchived && rec.IsArchived {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if !matchesFields(rec.Data, filter.Fields) {
			continue
		}
		clone, err := cloneRecord(rec)
		if err != nil {
			return nil, err
		}
		records = append(records, clone)
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(records) {
			return nil, nil
		}
		records = records[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(records) {
		records = records[:filter.Limit]
	}
	return records, nil
}

func (s *InMemoryStore) Update(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return fmt.Errorf("record %q: %w", rec.ID, sentinel.ErrNotFound)
	}
	clone, err := cloneRecord(rec)
	if err != nil {
		return err
	}
	s.records[rec.ID] = clone
	return nil
}

func matchesFields(doc audit.Document, fields map[string]string) bool {
	for key, want := range fields {
		got, _ := doc[key].(string)
		if got != want {
			return false
		}
	}
	return true
}

func cloneRecord(rec Record) (Record, error) {
	doc, err := audit.DocumentOf(rec.Data)
	if err != nil {
		return Record{}, err
	}
	rec.Data = doc
	return rec, nil
}
