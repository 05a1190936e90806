package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arnexam/exam-admission/internal/config"
	"github.com/arnexam/exam-admission/internal/repository"
)

// NewRedisClient creates and validates a Redis client connection.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}

// OpenStore returns the Store selected by STORE_BACKEND and a close func.
func OpenStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.Store, func() error, error) {
	switch cfg.StoreBackend {
	case "", "memory":
		log.Info().Msg("Using in-memory store")
		return repository.NewMemoryStore(), func() error { return nil }, nil
	case "redis":
		rdb, err := NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisStore(rdb), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
