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

// ProductOperations 商品管理操作
type ProductOperations interface {
	ListProducts(ctx context.Context, caller model.Caller) ([]model.ProductWithStock, error)
	UpdateProduct(ctx context.Context, caller model.Caller, id string, update service.ProductUpdate) (*model.Product, error)
	SetActive(ctx context.Context, caller model.Caller, id string, active bool) (*model.Product, error)
}

// ProductAdminHandler 商品管理处理器
type ProductAdminHandler struct {
	products ProductOperations
	logger   *logger.Logger
}

// NewProductAdminHandler 创建商品管理处理器
func NewProductAdminHandler(products ProductOperations, logger *logger.Logger) *ProductAdminHandler {
	return &ProductAdminHandler{
		products: products,
		logger:   logger,
	}
}

// SetActiveRequest 上下架请求
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// ListProducts 获取所有商品及库存
func (h *ProductAdminHandler) ListProducts(c *gin.Context) {
	products, err := h.products.ListProducts(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     200,
		"msg":      constants.SuccessGet,
		"products": products,
	})
}

// UpdateProduct 修改商品名称或价格
func (h *ProductAdminHandler) UpdateProduct(c *gin.Context) {
	var req service.ProductUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	product, err := h.products.UpdateProduct(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"msg":     constants.SuccessUpdate,
		"product": product,
	})
}

// SetProductActive 上架或下架商品
func (h *ProductAdminHandler) SetProductActive(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	product, err := h.products.SetActive(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req.Active)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"msg":     constants.SuccessUpdate,
		"product": product,
	})
}
