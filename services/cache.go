package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the lookup cache used by reference-data services.
type Cache interface {
	Get(ctx context.Context, key string, target interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisCache stores JSON values in redis.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string, target interface{}) error {
	return GetFromRedis(ctx, c.rdb, key, target)
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return SetToRedis(ctx, c.rdb, key, value, ttl)
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return DeleteFromRedis(ctx, c.rdb, key)
}
