package handler

import (
	"net/http"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// 错误类别对应的业务状态码
var kindCodes = map[apperr.Kind]int{
	apperr.KindValidation:        http.StatusBadRequest,
	apperr.KindPermission:        http.StatusForbidden,
	apperr.KindOrderNotFound:     http.StatusNotFound,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindInvalidState:      http.StatusConflict,
	apperr.KindInsufficientStock: http.StatusConflict,
	apperr.KindStoreUnavailable:  http.StatusServiceUnavailable,
}

// CodeForError 返回错误对应的业务状态码
func CodeForError(err error) int {
	if code, ok := kindCodes[apperr.KindOf(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// RespondError 按错误类别输出 {"code","msg"} 响应，内部错误不向外暴露细节
func RespondError(c *gin.Context, log *logger.Logger, err error) {
	code := CodeForError(err)
	msg := apperr.Message(err, constants.ErrInternalServer)
	if code == http.StatusInternalServerError {
		log.Error("请求处理失败", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "msg": msg})
}
