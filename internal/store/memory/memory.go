// Package memory is a map-backed store used by tests and by the server when
// no data path is configured. State is lost on exit.
package memory

import (
	"context"
	"sync"

	"bentahub/backend/internal/store"
)

type Store struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.slots[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), raw...), nil
}

func (s *Store) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Close() error {
	return nil
}
