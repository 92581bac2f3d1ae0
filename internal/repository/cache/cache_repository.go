package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"github.com/railway-info/internal/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix     = "railway:"
	profilePrefix = keyPrefix + "profile:"
)

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

// Key добавляет префикс к ключу кеша
func Key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("generic", "miss").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("generic", "error").Inc()
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	metrics.CacheLookups.WithLabelValues("generic", "hit").Inc()
	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.logger.Error("Failed to delete from cache", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.Strings("keys", keys))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// GetProfile получает профиль Discord из кеша
func (r *cacheRepository) GetProfile(ctx context.Context, userID string) (*domain.DiscordProfile, error) {
	data, err := r.client.Get(ctx, profilePrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues("profile", "miss").Inc()
		return nil, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("profile", "error").Inc()
		return nil, fmt.Errorf("cache get profile %s: %w", userID, err)
	}

	var profile domain.DiscordProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		// битая запись ведёт себя как промах
		r.logger.Warn("Dropping malformed cached profile", zap.String("user_id", userID), zap.Error(err))
		_ = r.client.Del(ctx, profilePrefix+userID).Err()
		metrics.CacheLookups.WithLabelValues("profile", "miss").Inc()
		return nil, nil
	}

	metrics.CacheLookups.WithLabelValues("profile", "hit").Inc()
	return &profile, nil
}

// SetProfile сохраняет профиль Discord в кеше
func (r *cacheRepository) SetProfile(ctx context.Context, profile *domain.DiscordProfile, ttl time.Duration) error {
	data, err := json.Marshal(profile)
	if err != nil {
		r.logger.Error("Failed to marshal profile", zap.Error(err))
		return fmt.Errorf("marshal profile: %w", err)
	}

	return r.Set(ctx, profilePrefix+profile.ID, data, ttl)
}
