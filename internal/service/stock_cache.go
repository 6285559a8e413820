package service

import (
	"context"
	"errors"
	"time"

	"cardshop/internal/repository"
	"cardshop/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// stockCacheTTL 限制写回旧计数的持续时间：统计早于提交的读者可能在 Invalidate 之后才写入缓存
const stockCacheTTL = 30 * time.Second

func stockCacheKey(productID string) string {
	return "stock:" + productID
}

// StockCache 商品可用库存缓存
type StockCache struct {
	cardRepo    repository.CardRepository
	redisClient *redis.Client
	logger      *logger.Logger
}

// NewStockCache 创建库存缓存
func NewStockCache(cardRepo repository.CardRepository, redisClient *redis.Client, logger *logger.Logger) *StockCache {
	return &StockCache{
		cardRepo:    cardRepo,
		redisClient: redisClient,
		logger:      logger,
	}
}

// AvailableStock 获取商品可用库存，缓存未命中时从数据库统计
func (c *StockCache) AvailableStock(ctx context.Context, productID string) (int64, error) {
	key := stockCacheKey(productID)
	count, err := c.redisClient.Get(ctx, key).Int64()
	if err == nil {
		return count, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.Warn("读取库存缓存失败", "product_id", productID, "error", err)
	}

	count, err = c.cardRepo.CountAvailable(ctx, productID)
	if err != nil {
		return 0, err
	}

	if err := c.redisClient.Set(ctx, key, count, stockCacheTTL).Err(); err != nil {
		c.logger.Warn("写入库存缓存失败", "product_id", productID, "error", err)
	}
	return count, nil
}

// Invalidate 使商品库存缓存失效，失败只记录日志
func (c *StockCache) Invalidate(ctx context.Context, productID string) {
	if err := c.redisClient.Del(ctx, stockCacheKey(productID)).Err(); err != nil {
		c.logger.Warn("清除库存缓存失败", "product_id", productID, "error", err)
	}
}
