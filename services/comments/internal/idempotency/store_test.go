package idempotency

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_FirstCallIsNotDuplicate(t *testing.T) {
	s := newMemoryStore(time.Minute, time.Now)
	dup, err := s.Check(context.Background(), "u1:key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatal("first check should not be duplicate")
	}
}

func TestMemoryStore_SecondCallIsDuplicate(t *testing.T) {
	s := newMemoryStore(time.Minute, time.Now)
	ctx := context.Background()

	_, _ = s.Check(ctx, "u1:key-2")

	dup, err := s.Check(ctx, "u1:key-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dup {
		t.Fatal("second check should be duplicate")
	}
}

func TestMemoryStore_DifferentKeysAreIndependent(t *testing.T) {
	s := newMemoryStore(time.Minute, time.Now)
	ctx := context.Background()

	_, _ = s.Check(ctx, "u1:A")

	dup, err := s.Check(ctx, "u2:A")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatal("different keys should not collide")
	}
}

func TestMemoryStore_KeyExpires(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newMemoryStore(time.Minute, func() time.Time { return now })
	ctx := context.Background()

	_, _ = s.Check(ctx, "k")
	now = now.Add(2 * time.Minute)

	dup, err := s.Check(ctx, "k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatal("expired key should not be duplicate")
	}
}

func TestNewStore_FallsBackToMemory(t *testing.T) {
	s, err := NewStore("", 0, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := s.(*memoryStore)
	if !ok {
		t.Fatalf("expected memoryStore when no URL provided, got %T", s)
	}
	if m.ttl != DefaultTTL {
		t.Fatalf("expected default ttl, got %s", m.ttl)
	}
}

func TestNewStore_RejectsMemoryInProd(t *testing.T) {
	s, err := NewStore("", 0, true)
	if err == nil {
		t.Fatalf("expected error in production with no URL, got store %T", s)
	}
	if s != nil {
		t.Fatalf("expected nil store, got %T", s)
	}
}

func TestNewStore_Redis(t *testing.T) {
	s, err := NewStore("redis://localhost:6379/0", time.Hour, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rs, ok := s.(*redisStore)
	if !ok {
		t.Fatalf("expected redisStore, got %T", s)
	}
	defer rs.Close()
	if rs.ttl != time.Hour {
		t.Fatalf("expected ttl 1h, got %s", rs.ttl)
	}
}

func TestMemoryStore_ReleaseAllowsRetry(t *testing.T) {
	s := newMemoryStore(time.Minute, time.Now)
	ctx := context.Background()

	_, _ = s.Check(ctx, "u1:k")
	if err := s.Release(ctx, "u1:k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	dup, err := s.Check(ctx, "u1:k")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dup {
		t.Fatal("released key should not be duplicate")
	}
}

func TestMemoryStore_SweepsExpiredKeys(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newMemoryStore(time.Minute, func() time.Time { return now })
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		_, _ = s.Check(ctx, k)
	}
	now = now.Add(2 * time.Minute)
	_, _ = s.Check(ctx, "d")

	if len(s.seen) != 1 {
		t.Fatalf("expected only the fresh key to remain, got %d entries", len(s.seen))
	}
	if _, ok := s.seen["d"]; !ok {
		t.Fatal("expected fresh key d to be kept")
	}
}

func TestNewStore_RejectsBadRedisURL(t *testing.T) {
	s, err := NewStore("localhost:6379", time.Hour, false)
	if err == nil {
		t.Fatalf("expected parse error for URL without scheme, got store %T", s)
	}
	if s != nil {
		t.Fatalf("expected nil store, got %T", s)
	}
}
