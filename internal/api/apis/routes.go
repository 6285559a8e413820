package apis

import (
	"cardshop/internal/api/handler"
	"cardshop/internal/constants"
	"cardshop/internal/middleware"
	"cardshop/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RegisterPublicRoutes 注册无需登录的API路由
func RegisterPublicRoutes(v1 *gin.RouterGroup, orderHandler *handler.OrderHandler, paymentHandler *handler.PaymentHandler, queryLimiter *middleware.IPRateLimiter, log *logger.Logger) {
	// 商品
	v1.GET("/products", orderHandler.ListProducts)

	// 订单
	orders := v1.Group("/orders")
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.POST("/query", middleware.RateLimit(queryLimiter), orderHandler.QueryOrders)
	}

	// 支付网关回调
	v1.GET("/payment/notify", middleware.TextRecovery(log, constants.NotifyFail), paymentHandler.Notify)
}
