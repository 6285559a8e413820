package handler

import (
	"context"
	"net/http"

	"cardshop/internal/middleware"
	"cardshop/internal/model"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ShopStatusSource 提供运营概况
type ShopStatusSource interface {
	GetShopStatus(ctx context.Context, caller model.Caller) (*model.ShopStatus, error)
}

// SystemHandler 运营概况处理器
type SystemHandler struct {
	status ShopStatusSource
	logger *logger.Logger
}

// NewSystemHandler 创建运营概况处理器实例
func NewSystemHandler(status ShopStatusSource, logger *logger.Logger) *SystemHandler {
	return &SystemHandler{
		status: status,
		logger: logger,
	}
}

// GetShopStatus 获取运营概况，需要管理员会话
func (h *SystemHandler) GetShopStatus(c *gin.Context) {
	status, err := h.status.GetShopStatus(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": status,
	})
}
