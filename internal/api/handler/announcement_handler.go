package handler

import (
	"context"
	"net/http"

	"cardshop/internal/model"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AnnouncementSource 提供首页展示的公告
type AnnouncementSource interface {
	VisibleAnnouncements(ctx context.Context) ([]model.Announcement, error)
}

// AnnouncementHandler 公告处理器
type AnnouncementHandler struct {
	announcements AnnouncementSource
	logger        *logger.Logger
}

// NewAnnouncementHandler 创建公告处理器实例
func NewAnnouncementHandler(announcements AnnouncementSource, logger *logger.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcements: announcements,
		logger:        logger,
	}
}

// GetAnnouncements 获取当前展示的公告
func (h *AnnouncementHandler) GetAnnouncements(c *gin.Context) {
	announcements, err := h.announcements.VisibleAnnouncements(c.Request.Context())
	if err != nil {
		h.logger.Error("获取公告列表失败", "error", err)
		c.JSON(http.StatusOK, gin.H{
			"code": 500,
			"msg":  "获取公告列表失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
		"data": announcements,
	})
}
