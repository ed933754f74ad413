// Package store defines the storage backend interface for pipeline artifacts:
// raw month archives, built datasets and cached game analyses.
//
// Keys are slash-separated relative paths such as "alice/2024-01.txt" or
// "alice.table". Backends map them onto their own namespace.
package store

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("store: key not found")

	// ErrInvalidKey is returned for empty, absolute or escaping keys.
	ErrInvalidKey = errors.New("store: invalid key")
)

// Store defines the interface for storage backends.
// Implementations handle path formats and storage details internally.
type Store interface {
	// Read returns the content stored under key.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write replaces the content stored under key. Readers never observe a
	// partially written value.
	Write(ctx context.Context, key string, data []byte) error

	// List returns all keys beginning with prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// ValidateKey checks that key is a clean relative slash path.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	if path.Clean(key) != key {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	return nil
}
