package cache

import (
	"context"
	"testing"
	"time"

	"catalog-watcher/fetcher"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return newRedisCache(client, "https://shop.test/collections/all"), mr
}

func TestRedisCacheMiss(t *testing.T) {
	c, _ := newTestRedisCache(t)

	v, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() on empty Redis error = %v", err)
	}
	if !v.IsZero() {
		t.Errorf("expected zero validators, got %+v", v)
	}
}

func TestRedisCacheStoreLoad(t *testing.T) {
	c, mr := newTestRedisCache(t)
	ctx := context.Background()

	want := fetcher.Validators{ETag: `"abc"`, LastModified: "Wed, 21 Oct 2015 07:28:00 GMT"}
	if err := c.Store(ctx, want); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	got, err := c.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
	if ttl := mr.TTL(c.key); ttl != 7*24*time.Hour {
		t.Errorf("expected 7 day TTL, got %v", ttl)
	}
}

func TestRedisCacheCorruptValue(t *testing.T) {
	c, mr := newTestRedisCache(t)
	if err := mr.Set(c.key, "not json"); err != nil {
		t.Fatal(err)
	}

	if _, err := c.Load(context.Background()); err == nil {
		t.Error("expected a decode error")
	}
}

func TestRedisCacheUnavailable(t *testing.T) {
	c, mr := newTestRedisCache(t)
	mr.Close()

	if _, err := c.Load(context.Background()); err == nil {
		t.Error("expected an error when Redis is down")
	}
}
