package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/constants"
	"github.com/liyxianren/mmyq/core/logger"
)

// TokenCache tracks revoked session tokens. Logout writes the token's jti
// with a TTL equal to the token's remaining lifetime; expired entries fall
// out on their own.
type TokenCache interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	Close() error
}

type redisCache struct {
	client *redis.Client
}

func NewTokenCache(cfg config.RedisConfig) (TokenCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Cache:Init:Ping:Error", "error", err, "addr", cfg.Addr)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Cache:Init:Done", "addr", cfg.Addr, "db", cfg.DB)
	return &redisCache{client: client}, nil
}

func (c *redisCache) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		// already expired, nothing to revoke
		return nil
	}
	key := constants.RedisKeyTokenBlacklist + jti
	if err := c.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		logger.Error("Cache:BlacklistToken:Error", "error", err, "jti", jti)
		return err
	}
	return nil
}

func (c *redisCache) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	key := constants.RedisKeyTokenBlacklist + jti
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		logger.Error("Cache:IsTokenBlacklisted:Error", "error", err, "jti", jti)
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) Close() error { return c.client.Close() }
