package middleware

import (
	"net/http"
	"net/url"
	"time"

	"cardshop/internal/constants"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader 请求ID响应头
const RequestIDHeader = "X-Request-ID"

// 访问日志中需要隐藏的查询参数
var redactedParams = []string{"sign", "query_password"}

// redactQuery 隐藏签名等敏感参数，解析失败时整体隐藏
func redactQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[redacted]"
	}
	for _, key := range redactedParams {
		if values.Has(key) {
			values.Set(key, "***")
		}
	}
	return values.Encode()
}

// RequestID 为每个请求分配ID，沿用客户端传入的ID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(RequestIDHeader, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger 日志中间件，5xx 记为错误，4xx 记为警告
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + redactQuery(raw)
		}

		// 处理请求
		c.Next()

		fields := []interface{}{
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"request_id", c.GetString(RequestIDHeader),
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("访问日志", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("访问日志", fields...)
		default:
			log.Info("访问日志", fields...)
		}
	}
}

// Recovery 恢复中间件，按 {"code","msg"} 格式返回内部错误
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("服务器错误", "panic", err, "path", c.Request.URL.Path, "request_id", c.GetString(RequestIDHeader))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": 500, "msg": constants.ErrInternalServer})
			}
		}()
		c.Next()
	}
}

// TextRecovery 恢复中间件，返回固定文本，用于按响应文本判断结果的支付回调
func TextRecovery(log *logger.Logger, body string) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("回调处理异常", "panic", err, "path", c.Request.URL.Path, "request_id", c.GetString(RequestIDHeader))
				c.Abort()
				c.String(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}

// CORS 跨域中间件，allowOrigin 为空时允许任意来源但不携带凭证
func CORS(allowOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if allowOrigin == "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+RequestIDHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
