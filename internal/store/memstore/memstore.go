// Package memstore provides an in-memory store implementation for testing.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/discochess/archivist/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an in-memory store for testing.
type Store struct {
	mu     sync.RWMutex
	items  map[string][]byte
	writes map[string]int
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		items:  make(map[string][]byte),
		writes: make(map[string]int),
	}
}

// Read returns a copy of the value stored under key.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.items[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Write stores a copy of data under key.
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	if err := store.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), data...)
	s.writes[key]++
	return nil
}

// List returns the keys beginning with prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.items {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Writes reports how many times key has been written (for test assertions).
func (s *Store) Writes(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes[key]
}

// Close is a no-op for the memory store.
func (s *Store) Close() error {
	return nil
}
