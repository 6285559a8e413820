package admin

import (
	"context"
	"net/http"

	"cardshop/internal/api/handler"
	"cardshop/internal/constants"
	"cardshop/internal/middleware"
	"cardshop/internal/model"
	"cardshop/internal/service"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AnnouncementOperations 公告管理操作
type AnnouncementOperations interface {
	ListAnnouncements(ctx context.Context, caller model.Caller) ([]model.Announcement, error)
	CreateAnnouncement(ctx context.Context, caller model.Caller, input service.AnnouncementInput) (*model.Announcement, error)
	UpdateAnnouncement(ctx context.Context, caller model.Caller, id string, input service.AnnouncementInput) (*model.Announcement, error)
	DeleteAnnouncement(ctx context.Context, caller model.Caller, id string) error
}

// AnnouncementAdminHandler 公告管理处理器
type AnnouncementAdminHandler struct {
	announcements AnnouncementOperations
	logger        *logger.Logger
}

// NewAnnouncementAdminHandler 创建公告管理处理器实例
func NewAnnouncementAdminHandler(announcements AnnouncementOperations, logger *logger.Logger) *AnnouncementAdminHandler {
	return &AnnouncementAdminHandler{
		announcements: announcements,
		logger:        logger,
	}
}

// GetAdminAnnouncements 获取公告列表（含未启用）
func (h *AnnouncementAdminHandler) GetAdminAnnouncements(c *gin.Context) {
	announcements, err := h.announcements.ListAnnouncements(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":          200,
		"msg":           constants.SuccessGet,
		"announcements": announcements,
	})
}

// CreateAnnouncement 创建公告
func (h *AnnouncementAdminHandler) CreateAnnouncement(c *gin.Context) {
	var req service.AnnouncementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	announcement, err := h.announcements.CreateAnnouncement(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessCreate,
		"data": announcement,
	})
}

// UpdateAnnouncement 更新公告
func (h *AnnouncementAdminHandler) UpdateAnnouncement(c *gin.Context) {
	var req service.AnnouncementInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	announcement, err := h.announcements.UpdateAnnouncement(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessUpdate,
		"data": announcement,
	})
}

// DeleteAnnouncement 删除公告
func (h *AnnouncementAdminHandler) DeleteAnnouncement(c *gin.Context) {
	if err := h.announcements.DeleteAnnouncement(c.Request.Context(), middleware.CallerFrom(c), c.Param("id")); err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  constants.SuccessDelete,
	})
}
