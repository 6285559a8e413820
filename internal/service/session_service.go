package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"
	"cardshop/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionTokenLen  = 64
	// DefaultSessionTTL 会话默认有效期
	DefaultSessionTTL = 7 * 24 * time.Hour
)

// SessionService 管理后台会话，会话内容只包含调用者身份
type SessionService struct {
	redisClient *redis.Client
	logger      *logger.Logger
}

// NewSessionService 创建会话服务
func NewSessionService(redisClient *redis.Client, logger *logger.Logger) *SessionService {
	return &SessionService{
		redisClient: redisClient,
		logger:      logger,
	}
}

// Issue 为调用者签发会话令牌
func (s *SessionService) Issue(ctx context.Context, caller model.Caller, ttl time.Duration) (string, error) {
	if caller.UserID == "" {
		return "", apperr.New(apperr.KindValidation, constants.ErrInvalidParams)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	data, err := json.Marshal(caller)
	if err != nil {
		return "", err
	}

	token, err := newSessionToken()
	if err != nil {
		return "", fmt.Errorf("生成会话令牌失败: %w", err)
	}
	if err := s.redisClient.Set(ctx, sessionKeyPrefix+token, data, ttl).Err(); err != nil {
		return "", fmt.Errorf("保存会话失败: %w", err)
	}

	s.logger.Info("签发会话", "user_id", caller.UserID, "role", caller.Role)
	return token, nil
}

// newSessionToken 由两个随机 UUID 拼接成 64 位十六进制令牌，随机源为 crypto/rand
func newSessionToken() (string, error) {
	var b strings.Builder
	b.Grow(sessionTokenLen)
	for i := 0; i < 2; i++ {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		b.WriteString(strings.ReplaceAll(id.String(), "-", ""))
	}
	return b.String(), nil
}

// Resolve 解析会话令牌，空令牌视为匿名调用者
func (s *SessionService) Resolve(ctx context.Context, token string) (model.Caller, error) {
	if token == "" {
		return model.Anonymous, nil
	}

	data, err := s.redisClient.Get(ctx, sessionKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Anonymous, apperr.New(apperr.KindPermission, constants.ErrInvalidToken)
		}
		return model.Anonymous, apperr.Wrap(apperr.KindStoreUnavailable, constants.ErrStoreUnavailable, err)
	}

	var caller model.Caller
	if err := json.Unmarshal(data, &caller); err != nil {
		return model.Anonymous, apperr.Wrap(apperr.KindPermission, constants.ErrInvalidToken, err)
	}
	return caller, nil
}

// Revoke 注销会话
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	return s.redisClient.Del(ctx, sessionKeyPrefix+token).Err()
}
