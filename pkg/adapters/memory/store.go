package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/btlib/pkg/domain"
)

// Store implements ports.TelemetryStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Telemetry
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Telemetry),
	}
}

// Save persists a copy of the record in memory.
func (s *Store) Save(ctx context.Context, key string, record *domain.Telemetry) error {
	// Deep copy to ensure isolation, similar to serialization
	copied := record.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = copied
	return nil
}

// Load retrieves a copy of the record from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.Telemetry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.data[key]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return record.Clone(), nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
