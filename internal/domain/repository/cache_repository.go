package repository

import (
	"context"
	"time"

	"github.com/railway-info/internal/domain"
)

// CacheRepository caches the public feeds and Discord profiles.
type CacheRepository interface {
	// Get returns nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete drops the keys; writes call it to invalidate the feeds.
	Delete(ctx context.Context, keys ...string) error

	Exists(ctx context.Context, key string) (bool, error)

	// GetProfile returns nil on a miss.
	GetProfile(ctx context.Context, userID string) (*domain.DiscordProfile, error)

	SetProfile(ctx context.Context, profile *domain.DiscordProfile, ttl time.Duration) error
}
