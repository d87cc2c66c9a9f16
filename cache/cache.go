// Package cache is a Redis cache-aside layer for catalog reads.
//
// A nil *Cache is valid and behaves as an always-missing cache, so callers
// need no branching when Redis is not configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kariqs/campus-store-api/metrics"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultPrefix = "store:"
	DefaultTTL    = 5 * time.Minute

	productsPattern = "products:*"
)

type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func New(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// ProductListKey is the key of a catalog listing, optionally per category.
func ProductListKey(category string) string {
	if category == "" {
		return "products:list:all"
	}
	return "products:list:" + strings.ToLower(category)
}

func ProductKey(id string) string {
	return "products:item:" + id
}

// Get loads key into dest and reports whether it was a hit.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}

	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheLookups.WithLabelValues("miss").Inc()
			return false, nil
		}
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// InvalidateProducts drops every cached listing and product. Stock counts are
// part of the cached documents, so any stock change must call it.
func (c *Cache) InvalidateProducts(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.deletePattern(ctx, productsPattern)
}

func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete error: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
