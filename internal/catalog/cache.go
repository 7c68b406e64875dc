package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	generationKey = "catalog:products:gen"
	pageKeyPrefix = "catalog:products:"
)

// PageCache stores rendered product list pages. Implementations swallow
// their own failures: a cache miss must always be a safe answer.
//
// Lookup resolves key against the current generation once. A page built
// after the lookup is stored under the returned slot, so an Invalidate that
// lands in between strands it in a generation no reader asks for. An empty
// slot means the page must not be stored.
type PageCache interface {
	Lookup(ctx context.Context, key string) (slot string, data []byte, ok bool)
	Store(ctx context.Context, slot string, data []byte)
	Invalidate(ctx context.Context)
}

// RedisPageCache namespaces pages under a generation counter. Invalidate
// bumps the counter, which orphans every cached page at once; orphans
// expire on their TTL.
type RedisPageCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisPageCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisPageCache {
	return &RedisPageCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisPageCache) pageKey(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return pageKeyPrefix + strconv.FormatInt(gen, 10) + ":" + key, nil
}

func (c *RedisPageCache) Lookup(ctx context.Context, key string) (string, []byte, bool) {
	slot, err := c.pageKey(ctx, key)
	if err != nil {
		c.logger.Warn("catalog cache unavailable", "error", err)
		return "", nil, false
	}

	data, err := c.client.Get(ctx, slot).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("catalog cache read failed", "error", err, "key", slot)
		}
		return slot, nil, false
	}
	return slot, data, true
}

func (c *RedisPageCache) Store(ctx context.Context, slot string, data []byte) {
	if slot == "" {
		return
	}
	if err := c.client.Set(ctx, slot, data, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", "error", err, "key", slot)
	}
}

func (c *RedisPageCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Error("catalog cache invalidation failed", "error", err)
	}
}
