package handler

import (
	"context"
	"net/http"

	"cardshop/internal/constants"
	"cardshop/internal/model"
	"cardshop/internal/service"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// OrderFlow 买家侧订单操作
type OrderFlow interface {
	CreateOrder(ctx context.Context, input service.CreateOrderInput) (*service.CreateOrderResult, error)
	QueryOrders(ctx context.Context, orderNoOrEmail, password string) ([]service.OrderView, error)
	ListProducts(ctx context.Context) ([]model.ProductWithStock, error)
}

// OrderHandler 买家订单处理器
type OrderHandler struct {
	orders OrderFlow
	logger *logger.Logger
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orders OrderFlow, logger *logger.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger,
	}
}

// QueryOrderRequest 订单查询请求
type QueryOrderRequest struct {
	OrderNoOrEmail string `json:"order_no_or_email"`
	QueryPassword  string `json:"query_password"`
}

// ListProducts 获取上架商品及库存
func (h *OrderHandler) ListProducts(c *gin.Context) {
	products, err := h.orders.ListProducts(c.Request.Context())
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     200,
		"msg":      constants.SuccessGet,
		"products": products,
	})
}

// CreateOrder 创建订单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	result, err := h.orders.CreateOrder(c.Request.Context(), input)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":     200,
		"msg":      constants.SuccessCreate,
		"order_no": result.Order.OrderNo,
		"amount":   result.Order.TotalAmount.StringFixed(2),
		"pay_url":  result.PayURL,
	})
}

// QueryOrders 使用查询密码查询订单
func (h *OrderHandler) QueryOrders(c *gin.Context) {
	var req QueryOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"code": 400, "msg": constants.ErrInvalidRequest})
		return
	}

	orders, err := h.orders.QueryOrders(c.Request.Context(), req.OrderNoOrEmail, req.QueryPassword)
	if err != nil {
		RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":   200,
		"msg":    constants.SuccessGet,
		"orders": orders,
	})
}
