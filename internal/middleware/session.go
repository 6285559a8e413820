package middleware

import (
	"context"
	"net/http"
	"strings"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// SessionResolver 根据令牌解析调用者
type SessionResolver interface {
	Resolve(ctx context.Context, token string) (model.Caller, error)
}

// Session 会话中间件，只解析调用者身份，权限由服务层校验
func Session(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))

		caller, err := sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			code := http.StatusUnauthorized
			if apperr.IsKind(err, apperr.KindStoreUnavailable) {
				code = http.StatusServiceUnavailable
			}
			c.JSON(http.StatusOK, gin.H{"code": code, "msg": apperr.Message(err, constants.ErrInvalidToken)})
			c.Abort()
			return
		}

		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom 获取当前请求的调用者，未经过会话中间件时为匿名
func CallerFrom(c *gin.Context) model.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(model.Caller); ok {
			return caller
		}
	}
	return model.Anonymous
}
