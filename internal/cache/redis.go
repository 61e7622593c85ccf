package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "coinscope:"

// RedisCache stores entries in Redis with a TTL. When Redis is unreachable
// it serves from an in-memory cache instead.
type RedisCache struct {
	rdb    *redis.Client
	mem    *MemoryCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache connects to addr and pings it.
func NewRedisCache(ctx context.Context, addr string, db int, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb, mem: NewMemoryCache(ttl), ttl: ttl, logger: logger}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dst any) error {
	b, err := r.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		r.logger.Warn("Redis get failed, using memory cache", zap.String("key", key), zap.Error(err))
		return r.mem.Get(ctx, key, dst)
	}
	return json.Unmarshal(b, dst)
}

func (r *RedisCache) Set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, keyPrefix+key, b, r.ttl).Err(); err != nil {
		r.logger.Warn("Redis set failed, using memory cache", zap.String("key", key), zap.Error(err))
		return r.mem.Set(ctx, key, v)
	}
	return nil
}

func (r *RedisCache) Close() error {
	r.mem.Close()
	return r.rdb.Close()
}
