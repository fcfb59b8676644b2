// Package cache stores rendered artifacts between runs.
//
// # Backends
//
//   - [FileCache]: zstd-compressed entries under a directory, for the CLI
//   - [MemoryCache]: an in-process map, for the HTTP render service
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// # Keys
//
// Keys are derived by a [Keyer] from content hashes and render options so
// identical inputs map to identical keys. [ScopedKeyer] prefixes keys, which
// the CLI uses to separate entries written by different builds.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that require a cached value.
var ErrCacheMiss = errors.New("cache miss")

// Default time-to-live values.
const (
	TTLArtifact = 7 * 24 * time.Hour
	TTLServer   = time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}
