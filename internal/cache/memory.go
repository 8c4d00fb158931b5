package cache

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Nothing outlives the process.
type MemoryStore struct {
	mu   sync.RWMutex
	data Entries
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: Entries{},
	}
}

// NewMemoryStoreWith seeds the store with a copy of initial.
func NewMemoryStoreWith(initial Entries) *MemoryStore {
	return &MemoryStore{
		data: initial.Clone(),
	}
}

func (s *MemoryStore) Load(ctx context.Context) Entries {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.data.Clone()
}

func (s *MemoryStore) Save(ctx context.Context, additions Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, v := range additions {
		s.data[k] = v
	}
	return nil
}

func (s *MemoryStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}
