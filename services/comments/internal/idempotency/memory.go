package idempotency

import (
	"context"
	"sync"
	"time"
)

// memoryStore is a development-only store. State is per process.
type memoryStore struct {
	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	seen      map[string]time.Time // key -> expiry
	nextSweep time.Time
}

func newMemoryStore(ttl time.Duration, now func() time.Time) *memoryStore {
	return &memoryStore{ttl: ttl, now: now, seen: make(map[string]time.Time), nextSweep: now().Add(ttl)}
}

func (s *memoryStore) Check(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	if exp, ok := s.seen[key]; ok && now.Before(exp) {
		return true, nil
	}
	s.seen[key] = now.Add(s.ttl)
	return false, nil
}

func (s *memoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.seen, key)
	s.mu.Unlock()
	return nil
}

// sweep drops expired keys at most once per TTL. Caller holds mu.
func (s *memoryStore) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	for k, exp := range s.seen {
		if !now.Before(exp) {
			delete(s.seen, k)
		}
	}
	s.nextSweep = now.Add(s.ttl)
}
