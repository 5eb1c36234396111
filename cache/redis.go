package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog-watcher/fetcher"
)

// RedisCache persists validators in Redis so a restart can still send a conditional request
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ ValidatorCache = (*RedisCache)(nil)

// NewRedisCache connects to Redis and scopes the cache entry to targetURL
func NewRedisCache(ctx context.Context, addr, targetURL string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)
	return newRedisCache(client, targetURL), nil
}

func newRedisCache(client *redis.Client, targetURL string) *RedisCache {
	return &RedisCache{
		client: client,
		key:    validatorKey(targetURL),
		ttl:    7 * 24 * time.Hour,
	}
}

func validatorKey(targetURL string) string {
	hash := sha256.Sum256([]byte(targetURL))
	return "watcher:validators:" + hex.EncodeToString(hash[:8])
}

// Load returns zero validators when nothing is stored
func (c *RedisCache) Load(ctx context.Context) (fetcher.Validators, error) {
	var v fetcher.Validators

	val, err := c.client.Get(ctx, c.key).Result()
	if err == redis.Nil {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("failed to get key %s: %w", c.key, err)
	}

	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return fetcher.Validators{}, fmt.Errorf("failed to decode validators: %w", err)
	}
	return v, nil
}

func (c *RedisCache) Store(ctx context.Context, v fetcher.Validators) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode validators: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", c.key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
