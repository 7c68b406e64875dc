package worker

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const notifiedKeyPrefix = "order_notified:"

// RedisDeduper keeps one key per notified order for ttl.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func notifiedKey(orderID int64) string {
	return notifiedKeyPrefix + strconv.FormatInt(orderID, 10)
}

func (d *RedisDeduper) Seen(ctx context.Context, orderID int64) (bool, error) {
	n, err := d.client.Exists(ctx, notifiedKey(orderID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *RedisDeduper) Mark(ctx context.Context, orderID int64) error {
	return d.client.Set(ctx, notifiedKey(orderID), "1", d.ttl).Err()
}
