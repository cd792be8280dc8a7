package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisStatementCache struct {
	client *redis.Client
}

func NewRedisStatementCache(addr string, password string, db int) *RedisStatementCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStatementCache{client: client}
}

func (c *RedisStatementCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStatementCache) Close() error {
	return c.client.Close()
}

func (c *RedisStatementCache) key(customerID string) string {
	return "statement:" + customerID
}

func (c *RedisStatementCache) Get(ctx context.Context, customerID string) (*Statement, bool, error) {
	val, err := c.client.Get(ctx, c.key(customerID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var st Statement
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return nil, false, err
	}
	return &st, true, nil
}

func (c *RedisStatementCache) Set(ctx context.Context, customerID string, st *Statement, ttl time.Duration) error {
	if st == nil {
		return nil
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(customerID), payload, ttl).Err()
}

func (c *RedisStatementCache) Invalidate(ctx context.Context, customerID string) error {
	return c.client.Del(ctx, c.key(customerID)).Err()
}
