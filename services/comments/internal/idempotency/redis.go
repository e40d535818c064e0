package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces request keys in a shared Redis.
const keyPrefix = "comments:idempotent:"

type redisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func newRedisStore(url string, ttl time.Duration) (*redisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return &redisStore{rdb: redis.NewClient(opts), ttl: ttl}, nil
}

func (s *redisStore) Check(ctx context.Context, key string) (bool, error) {
	fresh, err := s.rdb.SetNX(ctx, keyPrefix+key, time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency check: %w", err)
	}
	return !fresh, nil
}

func (s *redisStore) Release(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *redisStore) Close() error {
	return s.rdb.Close()
}
