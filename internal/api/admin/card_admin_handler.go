package admin

import (
	"net/http"

	"cardshop/internal/api/handler"
	"cardshop/internal/constants"
	"cardshop/internal/middleware"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CardAdminHandler 管理员商品与卡密处理器
type CardAdminHandler struct {
	admin  AdminOperations
	logger *logger.Logger
}

// NewCardAdminHandler 创建管理员卡密处理器
func NewCardAdminHandler(admin AdminOperations, logger *logger.Logger) *CardAdminHandler {
	return &CardAdminHandler{
		admin:  admin,
		logger: logger,
	}
}

// CreateCardsRequest 批量入库请求
type CreateCardsRequest struct {
	ProductID   string `json:"product_id"`
	Contents    string `json:"contents"`
	Deduplicate bool   `json:"deduplicate"`
}

// RelistCardsRequest 重新上架请求
type RelistCardsRequest struct {
	CardIDs []string `json:"card_ids"`
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// CreateCards 批量入库卡密
func (h *CardAdminHandler) CreateCards(c *gin.Context) {
	var req CreateCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	count, err := h.admin.CreateCards(c.Request.Context(), middleware.CallerFrom(c), req.ProductID, req.Contents, req.Deduplicate)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":  200,
		"msg":   constants.SuccessCreate,
		"count": count,
	})
}

// RelistCards 重新上架已退款卡密
func (h *CardAdminHandler) RelistCards(c *gin.Context) {
	var req RelistCardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	count, err := h.admin.RelistRefundedCards(c.Request.Context(), middleware.CallerFrom(c), req.CardIDs)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":  200,
		"msg":   "已重新上架",
		"count": count,
	})
}

// CreateProduct 创建商品
func (h *CardAdminHandler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	product, err := h.admin.CreateProduct(c.Request.Context(), middleware.CallerFrom(c), req.Name, req.Price)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"msg":     constants.SuccessCreate,
		"product": product,
	})
}
