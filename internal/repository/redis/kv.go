package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/database"
	apperrors "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/errors"
)

// KV implements repository.KV on Redis strings. Keys are namespaced with an
// optional prefix so several storefronts can share one Redis.
type KV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewKV creates a Redis-backed store. A zero ttl keeps values forever.
func NewKV(client *redis.Client, prefix string, ttl time.Duration) *KV {
	return &KV{client: client, prefix: prefix, ttl: ttl}
}

func (s *KV) key(k string) string {
	return s.prefix + k
}

// Get retrieves the value for key.
func (s *KV) Get(ctx context.Context, key string) (_ []byte, err error) {
	ctx, end := database.TraceOp(ctx, "redis", "GET", s.key(key))
	defer func() {
		if errors.Is(err, apperrors.ErrNotFound) {
			end(nil)
			return
		}
		end(err)
	}()

	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("key", key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set writes value under key with the configured TTL.
func (s *KV) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "SET", s.key(key))
	defer func() { end(err) }()

	if err := s.client.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *KV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
