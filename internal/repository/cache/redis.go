package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/railway-info/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis is the one client per process, shared by feeds, profiles, sessions and streams.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis connects and pings. The stream consumer blocks on XREADGROUP,
// so the read timeout is left to go-redis, which extends it by Block.
func NewRedis(cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:   cfg.Password,
		DB:         cfg.DB,
		PoolSize:   cfg.PoolSize,
		ClientName: "railway-info",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	logger.Info("Redis connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize),
	)

	return NewRedisFromClient(client, logger), nil
}

// NewRedisFromClient wraps an already configured client, e.g. the
// test database client in integration tests.
func NewRedisFromClient(client *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) Close() error {
	stats := r.client.PoolStats()
	r.logger.Info("Closing Redis connection",
		zap.Uint32("hits", stats.Hits),
		zap.Uint32("misses", stats.Misses),
		zap.Uint32("timeouts", stats.Timeouts))
	return r.client.Close()
}

// Health pings Redis; used by /api/health.
func (r *Redis) Health(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Client() *redis.Client {
	return r.client
}
