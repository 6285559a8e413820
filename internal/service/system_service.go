package service

import (
	"context"
	"encoding/json"
	"time"

	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const (
	shopStatusCacheKey = "system:status"
	shopStatusCacheTTL = time.Minute
)

// SystemService 商城运营概况服务
type SystemService struct {
	systemRepo  *repository.SystemRepository
	redisClient *redis.Client
	logger      *logger.Logger
}

// NewSystemService 创建运营概况服务实例
func NewSystemService(systemRepo *repository.SystemRepository, redisClient *redis.Client, logger *logger.Logger) *SystemService {
	return &SystemService{
		systemRepo:  systemRepo,
		redisClient: redisClient,
		logger:      logger,
	}
}

// GetShopStatus 获取运营概况，仅管理员可见
func (s *SystemService) GetShopStatus(ctx context.Context, caller model.Caller) (*model.ShopStatus, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	// 尝试从缓存获取
	cachedData, err := s.redisClient.Get(ctx, shopStatusCacheKey).Bytes()
	if err == nil {
		var status model.ShopStatus
		if err := json.Unmarshal(cachedData, &status); err == nil {
			return &status, nil
		}
	}

	// 缓存未命中，从数据库获取
	status, err := s.systemRepo.GetShopStatus(ctx)
	if err != nil {
		s.logger.Error("获取运营概况失败", "error", err)
		return nil, err
	}

	// 将结果存入缓存
	if data, err := json.Marshal(status); err == nil {
		if err := s.redisClient.Set(ctx, shopStatusCacheKey, data, shopStatusCacheTTL).Err(); err != nil {
			s.logger.Warn("写入运营概况缓存失败", "error", err)
		}
	}

	return status, nil
}
