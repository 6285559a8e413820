package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	announcementCacheKey = "announcements:visible"
	// 公告按时间窗口展示，缓存时间不宜过长
	announcementCacheTTL = time.Minute
)

// AnnouncementInput 创建或更新公告的参数
type AnnouncementInput struct {
	Title     string     `json:"title" validate:"required,max=100"`
	Content   string     `json:"content" validate:"required"`
	IsActive  bool       `json:"is_active"`
	SortOrder int        `json:"sort_order"`
	StartAt   *time.Time `json:"start_at"`
	EndAt     *time.Time `json:"end_at"`
}

var announcementMessages = map[string]string{
	"Title":   constants.ErrAnnouncementTitle,
	"Content": constants.ErrAnnouncementContent,
}

// AnnouncementService 首页公告服务
type AnnouncementService struct {
	announcementRepo *repository.AnnouncementRepository
	redisClient      *redis.Client
	validate         *validator.Validate
	logger           *logger.Logger
}

// NewAnnouncementService 创建公告服务实例
func NewAnnouncementService(announcementRepo *repository.AnnouncementRepository, redisClient *redis.Client, logger *logger.Logger) *AnnouncementService {
	return &AnnouncementService{
		announcementRepo: announcementRepo,
		redisClient:      redisClient,
		validate:         validator.New(),
		logger:           logger,
	}
}

// VisibleAnnouncements 获取当前展示的公告
func (s *AnnouncementService) VisibleAnnouncements(ctx context.Context) ([]model.Announcement, error) {
	// 尝试从缓存获取
	cachedData, err := s.redisClient.Get(ctx, announcementCacheKey).Bytes()
	if err == nil {
		var cached []model.Announcement
		if err := json.Unmarshal(cachedData, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn("读取公告缓存失败", "error", err)
	}

	// 缓存未命中，从数据库获取
	announcements, err := s.announcementRepo.ListVisible(ctx, time.Now())
	if err != nil {
		s.logger.Error("获取公告列表失败", "error", err)
		return nil, err
	}

	if data, err := json.Marshal(announcements); err == nil {
		if err := s.redisClient.Set(ctx, announcementCacheKey, data, announcementCacheTTL).Err(); err != nil {
			s.logger.Warn("写入公告缓存失败", "error", err)
		}
	}
	return announcements, nil
}

// InvalidateCache 删除所有公告相关的缓存
func (s *AnnouncementService) InvalidateCache(ctx context.Context) error {
	iter := s.redisClient.Scan(ctx, 0, "announcements:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.redisClient.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.Error("删除缓存失败", "key", iter.Val(), "error", err)
		}
	}
	return iter.Err()
}

// ListAnnouncements 管理员获取所有公告（含未启用）
func (s *AnnouncementService) ListAnnouncements(ctx context.Context, caller model.Caller) ([]model.Announcement, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return s.announcementRepo.ListAll(ctx)
}

// CreateAnnouncement 创建公告
func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, caller model.Caller, input AnnouncementInput) (*model.Announcement, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	announcement := &model.Announcement{ID: uuid.NewString()}
	applyAnnouncementInput(announcement, input)
	if err := s.announcementRepo.Create(ctx, announcement); err != nil {
		return nil, err
	}

	s.afterChange(ctx, "created", announcement.ID, caller)
	return announcement, nil
}

// UpdateAnnouncement 更新公告
func (s *AnnouncementService) UpdateAnnouncement(ctx context.Context, caller model.Caller, id string, input AnnouncementInput) (*model.Announcement, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, constants.ErrInvalidAnnouncementID, err)
	}
	if err := s.validateInput(&input); err != nil {
		return nil, err
	}

	announcement, err := s.announcementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	applyAnnouncementInput(announcement, input)
	if err := s.announcementRepo.Update(ctx, announcement); err != nil {
		return nil, notFoundOr(err)
	}

	s.afterChange(ctx, "updated", id, caller)
	return announcement, nil
}

// DeleteAnnouncement 删除公告
func (s *AnnouncementService) DeleteAnnouncement(ctx context.Context, caller model.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Wrap(apperr.KindValidation, constants.ErrInvalidAnnouncementID, err)
	}
	if err := s.announcementRepo.Delete(ctx, id); err != nil {
		return notFoundOr(err)
	}

	s.afterChange(ctx, "deleted", id, caller)
	return nil
}

func (s *AnnouncementService) validateInput(input *AnnouncementInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	if err := s.validate.Struct(input); err != nil {
		return validationError(err, announcementMessages)
	}
	if input.StartAt != nil && input.EndAt != nil && !input.EndAt.After(*input.StartAt) {
		return apperr.New(apperr.KindValidation, constants.ErrAnnouncementWindow)
	}
	return nil
}

func (s *AnnouncementService) afterChange(ctx context.Context, action, id string, caller model.Caller) {
	if err := s.InvalidateCache(ctx); err != nil {
		s.logger.Warn("清除公告缓存失败", "error", err)
	}
	s.logger.Info("公告已变更", "action", action, "announcement_id", id, "admin", caller.UserID)
}

func applyAnnouncementInput(a *model.Announcement, input AnnouncementInput) {
	a.Title = input.Title
	a.Content = input.Content
	a.IsActive = input.IsActive
	a.SortOrder = input.SortOrder
	a.StartAt = input.StartAt
	a.EndAt = input.EndAt
}

// notFoundOr 将 ErrNotFound 转换为公告不存在
func notFoundOr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.Wrap(apperr.KindNotFound, constants.ErrAnnouncementNotFound, err)
	}
	return err
}
