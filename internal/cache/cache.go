// Package cache holds the optional read-through cache for menu listings.
// Entries are keyed under a generation counter; bumping the generation on
// every menu write makes all earlier entries unreachable.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores serialized listing pages.
//
// Callers read the generation once before loading from the store and pass
// it to both Get and Set, so a page loaded before a concurrent write lands
// under the generation that write has already retired.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation int64, key string) ([]byte, bool, error)
	Set(ctx context.Context, generation int64, key string, value []byte) error
	// Invalidate drops every entry stored so far
	Invalidate(ctx context.Context) error
}

// RedisCache is the Redis-backed Cache. It owns its client.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	genKey string
}

// NewRedisCache builds a cache on an existing client
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		genKey: prefix + ":generation",
	}
}

// NewRedisClient connects to addr and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (r *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, r.genKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

func (r *RedisCache) Get(ctx context.Context, generation int64, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, GenerateKey(r.prefix, generation, key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, generation int64, key string, value []byte) error {
	return r.client.Set(ctx, GenerateKey(r.prefix, generation, key), value, r.ttl).Err()
}

func (r *RedisCache) Invalidate(ctx context.Context) error {
	return r.client.Incr(ctx, r.genKey).Err()
}

// Close releases the client's connections
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// GenerateKey composes the storage key for one entry
func GenerateKey(prefix string, generation int64, key string) string {
	return fmt.Sprintf("%s:g%d:%s", prefix, generation, key)
}

// Noop is used when no cache is configured
type Noop struct{}

func (Noop) Generation(context.Context) (int64, error) {
	return 0, nil
}

func (Noop) Get(context.Context, int64, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, int64, string, []byte) error {
	return nil
}

func (Noop) Invalidate(context.Context) error {
	return nil
}
