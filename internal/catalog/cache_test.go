package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gearup/storefront/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client, time.Minute)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func TestCacheSetGet(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	p := &models.Product{ID: "p1", Name: "Trail Shoe", Price: decimal.RequireFromString("49.99")}
	require.NoError(t, cache.Set(ctx, productKey("p1"), p))
	assert.True(t, mr.Exists("product:p1"))

	ttl := mr.TTL("product:p1")
	assert.GreaterOrEqual(t, ttl, time.Minute)
	assert.Less(t, ttl, 6*time.Minute)

	var got models.Product
	require.NoError(t, cache.Get(ctx, productKey("p1"), &got))
	assert.Equal(t, "Trail Shoe", got.Name)
	assert.Equal(t, "49.99", got.Price.String())
}

func TestCacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	var got models.Product
	assert.ErrorIs(t, cache.Get(context.Background(), "product:none", &got), ErrCacheMiss)
}

func TestCacheInvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	mr.Set("product:bad", "{nope")
	var got models.Product
	err := cache.Get(context.Background(), "product:bad", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCacheDeletePrefix(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, relatedKey("Shoes", "p1"), []models.Product{}))
	require.NoError(t, cache.Set(ctx, relatedKey("Hats", "p9"), []models.Product{}))
	require.NoError(t, cache.Set(ctx, productKey("p1"), models.Product{}))

	require.NoError(t, cache.DeletePrefix(ctx, relatedPrefix))
	assert.False(t, mr.Exists("related:Shoes:p1"))
	assert.False(t, mr.Exists("related:Hats:p9"))
	assert.True(t, mr.Exists("product:p1"))
}

func TestCacheKeyFormat(t *testing.T) {
	assert.Equal(t, "product:abc", productKey("abc"))
	assert.Equal(t, "related:Shoes:p1", relatedKey("Shoes", "p1"))
}
