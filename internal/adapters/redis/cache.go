package redisad

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"hotel_recommender/internal/adapters/observability"
)

// Cache is a JSON-over-Redis cache. The name prefixes every key and labels
// the cache metrics, so the station and hotel caches stay distinguishable on
// one Redis.
type Cache struct {
	c    *redis.Client
	name string
}

func New(addr, pass string, db int, name string) *Cache {
	return &Cache{
		c:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		name: name,
	}
}

func (r *Cache) key(k string) string {
	if r.name == "" {
		return k
	}
	return r.name + ":" + k
}

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		observability.ObserveCache(r.name, "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache(r.name, "hit")
	return true, json.Unmarshal(v, dst)
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache(r.name, "set")
	return r.c.Set(ctx, r.key(key), b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache(r.name, "del")
	return r.c.Del(ctx, r.key(key)).Err()
}
