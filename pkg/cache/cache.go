// Package cache stores solved plans and rendered artifacts.
//
// Solving is deterministic for a given catalog and request, so results can be
// cached under a key derived from the catalog fingerprint and the normalized
// request (see [Keyer]). Four backends implement [Cache]:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: JSON files under the user cache directory (CLI default)
//   - [MemoryCache]: bounded in-process LRU (API server default)
//   - [RedisCache]: shared cache for several server instances
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned by Fetch when the key holds nothing.
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnavailable is returned when a remote backend cannot be reached.
	ErrUnavailable = errors.New("cache unavailable")
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the stored data and true, or false on a miss. Expired
	// entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Fetch is Get with the miss folded into the error, for callers that treat
// misses and failures alike.
func Fetch(ctx context.Context, c Cache, key string) ([]byte, error) {
	data, hit, err := c.Get(ctx, key)
	switch {
	case err != nil:
		return nil, err
	case !hit:
		return nil, ErrCacheMiss
	}
	return data, nil
}

// NullCache disables caching: every lookup misses and writes vanish.
type NullCache struct{}

func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Clear(context.Context) error                              { return nil }
func (NullCache) Close() error                                             { return nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
)
