package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = keyPrefix + "session:"

// SessionStorage implements fiber.Storage on top of the shared client so
// login sessions survive restarts.
type SessionStorage struct {
	client  *redis.Client
	timeout time.Duration
}

func NewSessionStorage(r *Redis) *SessionStorage {
	return &SessionStorage{
		client:  r.Client(),
		timeout: 3 * time.Second,
	}
}

func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	val, err := s.client.Get(ctx, sessionPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.client.Set(ctx, sessionPrefix+key, val, exp).Err()
}

func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	return s.client.Del(ctx, sessionPrefix+key).Err()
}

// Reset removes every session, leaving other keys alone.
func (s *SessionStorage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*s.timeout)
	defer cancel()

	iter := s.client.Scan(ctx, 0, sessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op: the client belongs to Redis.
func (s *SessionStorage) Close() error {
	return nil
}
