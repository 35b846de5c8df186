package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Config selects and configures the session backend.
type Config struct {
	Provider string
	// Capacity bounds the memory store. Ignored by redis.
	Capacity int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// RedisPrefix namespaces session keys when the redis database is shared
	// with the catalog cache.
	RedisPrefix string
}

func NewStore(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "memory":
		return NewMemoryStore(cfg.Capacity), nil
	case "redis":
		return NewRedisStore(ctx, &redis.Options{
			Addr:     strings.TrimSpace(cfg.RedisAddr),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unsupported session store provider: %s", cfg.Provider)
	}
}
