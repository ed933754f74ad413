// Package storeurl opens a store.Store from a location string.
//
// Supported locations:
//
//	./data                 local directory
//	gs://bucket/prefix     Google Cloud Storage
//	s3://bucket/prefix     Amazon S3 (region from the environment)
package storeurl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/discochess/archivist/internal/stats"
	"github.com/discochess/archivist/internal/store"
	"github.com/discochess/archivist/internal/store/cachedstore"
	"github.com/discochess/archivist/internal/store/cachedstore/cachestrategy/lru"
	"github.com/discochess/archivist/internal/store/cachedstore/memory"
	"github.com/discochess/archivist/internal/store/diskstore"
	"github.com/discochess/archivist/internal/store/gcsstore"
	"github.com/discochess/archivist/internal/store/s3store"
)

// ErrInvalidLocation is returned for a bucket location without a bucket.
var ErrInvalidLocation = errors.New("storeurl: invalid location")

const (
	gcsScheme = "gs://"
	s3Scheme  = "s3://"
)

// Open returns the store for location.
func Open(ctx context.Context, location string) (store.Store, error) {
	switch {
	case strings.HasPrefix(location, gcsScheme):
		bucket, prefix, err := parseBucketPath(location, gcsScheme)
		if err != nil {
			return nil, err
		}
		return gcsstore.New(ctx, bucket, gcsstore.WithPrefix(prefix))
	case strings.HasPrefix(location, s3Scheme):
		bucket, prefix, err := parseBucketPath(location, s3Scheme)
		if err != nil {
			return nil, err
		}
		return s3store.New(ctx, bucket, s3store.WithPrefix(prefix))
	case location == "":
		return nil, fmt.Errorf("%w: empty", ErrInvalidLocation)
	}
	return diskstore.New(location)
}

// Join appends a path element to location, keeping its scheme.
func Join(location, elem string) string {
	return strings.TrimSuffix(location, "/") + "/" + elem
}

// parseBucketPath parses "<scheme>bucket/prefix" into bucket and prefix.
func parseBucketPath(location, scheme string) (bucket, prefix string, err error) {
	path := strings.TrimPrefix(location, scheme)
	parts := strings.SplitN(path, "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("%w: missing bucket name in %q", ErrInvalidLocation, location)
	}

	bucket = parts[0]
	if len(parts) > 1 {
		prefix = strings.TrimSuffix(parts[1], "/")
		if prefix != "" {
			prefix += "/"
		}
	}
	return bucket, prefix, nil
}

// WithLRU fronts s with an in-memory LRU of capacity entries.
func WithLRU(s store.Store, capacity int, collector stats.Collector) (*cachedstore.Store, error) {
	strategy, err := lru.New(capacity)
	if err != nil {
		return nil, fmt.Errorf("creating LRU strategy: %w", err)
	}
	return cachedstore.New(s, memory.New(strategy, collector)), nil
}
