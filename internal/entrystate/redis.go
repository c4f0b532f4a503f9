package entrystate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/merev/scorecard-api/internal/scoring"
)

const scanBatch = 100

// RedisCache keeps snapshots in redis with a TTL.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Save(ctx context.Context, key Key, state scoring.EntryState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, key.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("save entry state %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Load(ctx context.Context, key Key) (scoring.EntryState, error) {
	data, err := c.rdb.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load entry state %s: %w", key, err)
	}
	return decode(data)
}

func (c *RedisCache) Delete(ctx context.Context, key Key) error {
	if err := c.rdb.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("delete entry state %s: %w", key, err)
	}
	return nil
}

// ClearSession removes every round and draft snapshot of a session.
func (c *RedisCache) ClearSession(ctx context.Context, session string) error {
	var keys []string
	for _, prefix := range sessionPrefixes(session) {
		iter := c.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan entry states of session %s: %w", session, err)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clear entry states of session %s: %w", session, err)
	}
	return nil
}
