package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/example/mflix/internal/platform/mongodb"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

type Config struct {
	// StoreBackend selects the CommentStore (STORE_BACKEND). Defaults to mongo.
	StoreBackend string
	// MongoURI and MongoDatabase locate the mflix data set.
	MongoURI      string
	MongoDatabase string
	// DatabaseURL is the Postgres DSN for the postgres backend.
	DatabaseURL string
	// StoreDeadline bounds each store call (COMMENTS_STORE_DEADLINE). Zero disables it.
	StoreDeadline time.Duration
	JWTSecret     string
	// NATSURL enables comment events. Empty runs the publisher as a stub.
	NATSURL        string
	RedisURL       string
	IdempotencyTTL time.Duration
}

func Load() (Config, error) {
	cfg := Config{
		StoreBackend:  strings.ToLower(env("STORE_BACKEND")),
		MongoURI:      env("MONGODB_URI"),
		MongoDatabase: env("MONGODB_DATABASE"),
		DatabaseURL:   env("DATABASE_URL"),
		JWTSecret:     env("JWT_SECRET"),
		NATSURL:       env("NATS_URL"),
		RedisURL:      env("REDIS_URL"),
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendMongo
	}
	switch cfg.StoreBackend {
	case BackendMongo, BackendPostgres, BackendMemory:
	default:
		return Config{}, fmt.Errorf("STORE_BACKEND %q: want mongo, postgres or memory", cfg.StoreBackend)
	}
	if cfg.MongoDatabase == "" {
		cfg.MongoDatabase = mongodb.DefaultDatabase
	}

	var err error
	if cfg.StoreDeadline, err = duration("COMMENTS_STORE_DEADLINE", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = duration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that depend on the environment. An empty
// JWT_SECRET would verify tokens against an empty HMAC key, so it is only
// tolerated for the in-memory backend outside production.
func (c Config) Validate(isProd bool) error {
	if c.JWTSecret == "" && (isProd || c.StoreBackend != BackendMemory) {
		return errors.New("JWT_SECRET is required unless STORE_BACKEND=memory outside production")
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d, nil
}
