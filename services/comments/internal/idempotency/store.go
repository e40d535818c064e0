// Package idempotency guards comment creation against replayed requests
// carrying the same Idempotency-Key.
//
// Primary backend: Redis SETNX with TTL (env REDIS_URL).
// Without Redis an in-memory store is used (development only).
package idempotency

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is how long a key is remembered when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Store records request keys for the TTL.
type Store interface {
	// Check returns true if key was already seen.
	// If not seen, it atomically marks it.
	Check(ctx context.Context, key string) (duplicate bool, err error)
	// Release forgets key. Called when the guarded write failed so the
	// client can retry with the same key.
	Release(ctx context.Context, key string) error
}

// NewStore creates the best available store: Redis > in-memory.
// When isProd is true the in-memory fallback is refused.
func NewStore(redisURL string, ttl time.Duration, isProd bool) (Store, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if redisURL != "" {
		rs, err := newRedisStore(redisURL, ttl)
		if err != nil {
			return nil, err
		}
		return rs, nil
	}
	if isProd {
		return nil, errors.New("production requires REDIS_URL for idempotency; in-memory store is not allowed")
	}
	return newMemoryStore(ttl, time.Now), nil
}
