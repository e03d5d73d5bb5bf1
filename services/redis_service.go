package services

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by GetFromRedis when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// GetFromRedis decodes the JSON value at key into target.
func GetFromRedis(ctx context.Context, rdb *redis.Client, key string, target interface{}) error {
	cached, err := rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(cached, target)
}

// SetToRedis stores value as JSON with a TTL.
func SetToRedis(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, data, ttl).Err()
}

func DeleteFromRedis(ctx context.Context, rdb *redis.Client, key string) error {
	return rdb.Del(ctx, key).Err()
}
