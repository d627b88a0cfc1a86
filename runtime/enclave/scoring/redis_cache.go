package scoring

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache wraps an upstream Gate with a shared Redis-backed cache, for
// deployments that run multiple Enclave processes against the same workflow
// and want scoring results shared across them rather than duplicated
// per-process as Cached does.
type RedisCache struct {
	upstream  Gate
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisCacheOptions configures a RedisCache.
type RedisCacheOptions struct {
	Redis *redis.Client
	// KeyPrefix namespaces cache keys, defaulting to "enclave:scoring:".
	KeyPrefix string
	// TTL bounds how long a cached score is reused. Zero means no expiry.
	TTL time.Duration
}

// NewRedisCache constructs a RedisCache wrapping upstream.
func NewRedisCache(upstream Gate, opts RedisCacheOptions) (*RedisCache, error) {
	if opts.Redis == nil {
		return nil, errors.New("scoring: RedisCacheOptions.Redis is required")
	}
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = "enclave:scoring:"
	}
	return &RedisCache{upstream: upstream, rdb: opts.Redis, keyPrefix: prefix, ttl: opts.TTL}, nil
}

// Score implements Gate, consulting Redis before calling upstream.
func (c *RedisCache) Score(ctx context.Context, req Request) (*Result, error) {
	key := c.keyPrefix + cacheKey(req)

	cached, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		if result, err := unmarshalResult(cached); err == nil {
			return result, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	result, err := c.upstream.Score(ctx, req)
	if err != nil {
		return nil, err
	}

	if encoded, err := marshalResult(result); err == nil {
		_ = c.rdb.Set(ctx, key, encoded, c.ttl).Err()
	}
	return result, nil
}
