package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requires Redis running on localhost:6379
const testRedisAddr = "localhost:6379"

func setupTestCache(t *testing.T, prefix string) *Cache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	c := New(client, prefix, time.Minute)
	require.NoError(t, c.deletePattern(ctx, "*"))
	t.Cleanup(func() {
		c.deletePattern(context.Background(), "*")
		client.Close()
	})
	return c
}

type cachedProduct struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Stock int    `json:"countInStock"`
}

func TestNilCacheIsAlwaysMiss(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ProductKey("p1"), cachedProduct{ID: "p1"}))

	var got cachedProduct
	hit, err := c.Get(ctx, ProductKey("p1"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.InvalidateProducts(ctx))
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestProductListKey(t *testing.T) {
	assert.Equal(t, "products:list:all", ProductListKey(""))
	assert.Equal(t, ProductListKey("stationery"), ProductListKey("Stationery"))
}

func TestCache_SetGetInvalidate(t *testing.T) {
	c := setupTestCache(t, "test:store:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, ProductKey("p1"), cachedProduct{ID: "p1", Name: "Notebook", Stock: 3}))
	require.NoError(t, c.Set(ctx, ProductListKey(""), []cachedProduct{{ID: "p1"}}))

	var got cachedProduct
	hit, err := c.Get(ctx, ProductKey("p1"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 3, got.Stock)

	require.NoError(t, c.InvalidateProducts(ctx))

	hit, err = c.Get(ctx, ProductKey("p1"), &got)
	require.NoError(t, err)
	assert.False(t, hit)

	var list []cachedProduct
	hit, err = c.Get(ctx, ProductListKey(""), &list)
	require.NoError(t, err)
	assert.False(t, hit)
}
