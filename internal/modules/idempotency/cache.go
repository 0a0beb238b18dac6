package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Header carries the caller-supplied idempotency key on HTTP requests.
const Header = "Idempotency-Key"

// Operations namespace the keyspace so a checkout key can never collide with
// a validator key, and one store's keys can never collide with another's.
const (
	OpCheckout      = "checkout"
	OpPaymentIntent = "payment-intent"
)

const DefaultTTL = 24 * time.Hour

// Cache is a shared keyed store for request deduplication. It is an
// optimization: correctness is always backed by persistence-layer uniqueness
// constraints, so a missing or expired entry just means full reprocessing.
type Cache interface {
	Get(ctx context.Context, op, storeID, key string) ([]byte, error)
	Set(ctx context.Context, op, storeID, key string, payload []byte, ttl time.Duration) error
}

func cacheKey(op, storeID, key string) string {
	return fmt.Sprintf("%s:%s:%s", op, storeID, strings.TrimSpace(key))
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Get returns (nil, nil) for absent or expired entries.
func (c *RedisCache) Get(ctx context.Context, op, storeID, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := c.rdb.Get(ctx, cacheKey(op, storeID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, op, storeID, key string, payload []byte, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return c.rdb.Set(ctx, cacheKey(op, storeID, key), payload, ttl).Err()
}
