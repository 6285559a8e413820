package admin

import (
	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes 注册管理员API路由，调用者身份由会话中间件解析
func RegisterAdminRoutes(
	router *gin.RouterGroup,
	orderAdminHandler *OrderAdminHandler,
	cardAdminHandler *CardAdminHandler,
	productAdminHandler *ProductAdminHandler,
	announcementAdminHandler *AnnouncementAdminHandler,
) {
	// 订单管理路由
	orders := router.Group("/orders")
	{
		orders.GET("", orderAdminHandler.ListOrders)
		orders.POST("/:id/complete", orderAdminHandler.CompleteOrder)
		orders.POST("/:id/refund", orderAdminHandler.RefundOrder)
	}

	// 卡密管理路由
	cards := router.Group("/cards")
	{
		cards.POST("", cardAdminHandler.CreateCards)
		cards.POST("/relist", cardAdminHandler.RelistCards)
	}

	// 商品管理路由
	products := router.Group("/products")
	{
		products.GET("", productAdminHandler.ListProducts)
		products.POST("", cardAdminHandler.CreateProduct)
		products.PUT("/:id", productAdminHandler.UpdateProduct)
		products.POST("/:id/active", productAdminHandler.SetProductActive)
	}

	// 公告管理路由
	announcements := router.Group("/announcements")
	{
		announcements.GET("", announcementAdminHandler.GetAdminAnnouncements)
		announcements.POST("", announcementAdminHandler.CreateAnnouncement)
		announcements.PUT("/:id", announcementAdminHandler.UpdateAnnouncement)
		announcements.DELETE("/:id", announcementAdminHandler.DeleteAnnouncement)
	}
}
