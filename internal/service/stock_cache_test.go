package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockCacheStaleCountExpires(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 3)
	ctx := context.Background()
	key := stockCacheKey(product.ID)

	// 模拟统计早于发货提交的读者在失效之后写回旧值
	env.stock.Invalidate(ctx, product.ID)
	require.NoError(t, env.redis.Set(ctx, key, 5, stockCacheTTL).Err())

	count, err := env.stock.AvailableStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
	assert.LessOrEqual(t, env.mini.TTL(key), stockCacheTTL)

	env.mini.FastForward(stockCacheTTL)
	count, err = env.stock.AvailableStock(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Equal(t, stockCacheTTL, env.mini.TTL(key))
}
