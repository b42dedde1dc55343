package persistence

import (
	"context"
	"sync"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
	"github.com/khoahotran/portfolio-editor/pkg/apperror"
)

// MemoryKVStore is a process-local store for tests and the "memory" storage driver.
type MemoryKVStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	writes int
	// FailWrites makes every Set return an error, to simulate a full quota.
	FailWrites bool
}

var _ portfolio.KeyValueStore = (*MemoryKVStore)(nil)

func NewMemoryKVStore() *MemoryKVStore {
	return &MemoryKVStore{values: make(map[string][]byte)}
}

func (s *MemoryKVStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return nil, apperror.NewNotFound("stored value", key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryKVStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites {
		return apperror.NewInternal("storage quota exceeded", nil)
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.values[key] = v
	s.writes++
	return nil
}

// Writes counts successful Set calls.
func (s *MemoryKVStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}
