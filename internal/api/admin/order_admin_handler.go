package admin

import (
	"context"
	"net/http"
	"strconv"

	"cardshop/internal/api/handler"
	"cardshop/internal/constants"
	"cardshop/internal/middleware"
	"cardshop/internal/model"
	"cardshop/internal/service"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminOperations 管理员操作
type AdminOperations interface {
	CompleteOrder(ctx context.Context, caller model.Caller, orderID, remark string) (*service.FulfillmentOutcome, error)
	RefundOrder(ctx context.Context, caller model.Caller, orderID, remark string) (*model.Order, error)
	ListOrders(ctx context.Context, caller model.Caller, filter model.OrderFilter) ([]model.Order, int, error)
	RelistRefundedCards(ctx context.Context, caller model.Caller, cardIDs []string) (int, error)
	CreateCards(ctx context.Context, caller model.Caller, productID, contents string, deduplicate bool) (int, error)
	CreateProduct(ctx context.Context, caller model.Caller, name string, price decimal.Decimal) (*model.Product, error)
}

// OrderAdminHandler 管理员订单处理器
type OrderAdminHandler struct {
	admin  AdminOperations
	logger *logger.Logger
}

// NewOrderAdminHandler 创建管理员订单处理器
func NewOrderAdminHandler(admin AdminOperations, logger *logger.Logger) *OrderAdminHandler {
	return &OrderAdminHandler{
		admin:  admin,
		logger: logger,
	}
}

// OrderActionRequest 订单操作请求
type OrderActionRequest struct {
	Remark string `json:"remark"`
}

// ListOrders 分页获取订单列表
func (h *OrderAdminHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := model.OrderFilter{
		Status:        model.OrderStatus(c.Query("status")),
		AwaitingStock: c.Query("awaiting_stock") == "true",
		Page:          page,
		PageSize:      pageSize,
	}

	orders, total, err := h.admin.ListOrders(c.Request.Context(), middleware.CallerFrom(c), filter)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":   200,
		"msg":    constants.SuccessGet,
		"orders": orders,
		"total":  total,
	})
}

// CompleteOrder 手动完成订单
func (h *OrderAdminHandler) CompleteOrder(c *gin.Context) {
	var req OrderActionRequest
	_ = c.ShouldBindJSON(&req)

	outcome, err := h.admin.CompleteOrder(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req.Remark)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":  200,
		"msg":   constants.SuccessComplete,
		"order": outcome.Order,
		"cards": outcome.Contents(),
	})
}

// RefundOrder 退款订单
func (h *OrderAdminHandler) RefundOrder(c *gin.Context) {
	var req OrderActionRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.admin.RefundOrder(c.Request.Context(), middleware.CallerFrom(c), c.Param("id"), req.Remark)
	if err != nil {
		handler.RespondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":  200,
		"msg":   constants.SuccessRefund,
		"order": order,
	})
}
