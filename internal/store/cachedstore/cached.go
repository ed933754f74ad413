package cachedstore

import (
	"context"

	"github.com/discochess/archivist/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store wraps another Store with caching.
type Store struct {
	underlying store.Store
	backend    Backend
}

// New creates a new cached store wrapping the given store.
func New(underlying store.Store, backend Backend) *Store {
	return &Store{
		underlying: underlying,
		backend:    backend,
	}
}

// Read returns the value for key, checking the cache first.
func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	if data, ok := s.backend.Get(key); ok {
		return data, nil
	}

	data, err := s.underlying.Read(ctx, key)
	if err != nil {
		return nil, err
	}

	s.backend.Set(key, data)
	return data, nil
}

// Write writes through to the underlying store. The cached copy is replaced
// only after the underlying write succeeded.
func (s *Store) Write(ctx context.Context, key string, data []byte) error {
	if err := s.underlying.Write(ctx, key, data); err != nil {
		s.backend.Remove(key)
		return err
	}
	s.backend.Set(key, data)
	return nil
}

// List is not cached.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	return s.underlying.List(ctx, prefix)
}

// Close closes the underlying store.
func (s *Store) Close() error {
	return s.underlying.Close()
}

// Stats returns cache statistics.
func (s *Store) Stats() Stats {
	return s.backend.Stats()
}
