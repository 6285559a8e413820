package api

import (
	"net/http"

	"cardshop/config"
	"cardshop/internal/api/admin"
	"cardshop/internal/api/apis"
	"cardshop/internal/api/handler"
	"cardshop/internal/middleware"
	"cardshop/internal/repository"
	"cardshop/internal/service"
	"cardshop/pkg/async"
	"cardshop/pkg/logger"
	"cardshop/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Services 路由和调度器共用的服务
type Services struct {
	Orders        *service.OrderService
	Fulfillment   *service.FulfillmentService
	Admin         *service.AdminService
	Sessions      *service.SessionService
	Products      *service.ProductService
	Announcements *service.AnnouncementService
	System        *service.SystemService
}

// NewServices 初始化存储库和服务
func NewServices(cfg *config.Config, logger *logger.Logger, db *sqlx.DB, redisClient *redis.Client, worker *async.Worker, mailer service.CardMailer) *Services {
	// 初始化存储库
	store := repository.NewStore(db, cfg.Order.FulfillTimeout)
	orderRepo := repository.NewOrderRepository(db)
	cardRepo := repository.NewCardRepository(db)
	productRepo := repository.NewProductRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	systemRepo := repository.NewSystemRepository(db)

	payClient := payment.NewClient(cfg.Payment.PID, cfg.Payment.Secret, cfg.Payment.Gateway, cfg.Payment.SiteURL)

	// 初始化服务
	stockCache := service.NewStockCache(cardRepo, redisClient, logger)
	delivery := service.NewMailDelivery(worker, mailer, cfg.Payment.SiteURL, logger)
	fulfillment := service.NewFulfillmentService(store, orderRepo, cardRepo, stockCache, delivery, logger)

	return &Services{
		Orders:        service.NewOrderService(productRepo, orderRepo, cardRepo, stockCache, payClient, cfg.Order.ExpireAfter, logger),
		Fulfillment:   fulfillment,
		Admin:         service.NewAdminService(store, orderRepo, cardRepo, productRepo, fulfillment, stockCache, logger),
		Sessions:      service.NewSessionService(redisClient, logger),
		Products:      service.NewProductService(productRepo, stockCache, logger),
		Announcements: service.NewAnnouncementService(announcementRepo, redisClient, logger),
		System:        service.NewSystemService(systemRepo, redisClient, logger),
	}
}

// SetupRouter 设置API路由
func SetupRouter(cfg *config.Config, logger *logger.Logger, services *Services) *gin.Engine {
	// 创建Gin引擎
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 使用中间件
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.Payment.SiteURL))

	// 初始化处理器
	orderHandler := handler.NewOrderHandler(services.Orders, logger)
	paymentHandler := handler.NewPaymentHandler(services.Fulfillment, cfg.Payment.Secret, logger)
	announcementHandler := handler.NewAnnouncementHandler(services.Announcements, logger)
	systemHandler := handler.NewSystemHandler(services.System, logger)

	// 初始化管理员处理器
	orderAdminHandler := admin.NewOrderAdminHandler(services.Admin, logger)
	cardAdminHandler := admin.NewCardAdminHandler(services.Admin, logger)
	productAdminHandler := admin.NewProductAdminHandler(services.Products, logger)
	announcementAdminHandler := admin.NewAnnouncementAdminHandler(services.Announcements, logger)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API版本v1
	v1 := router.Group("/api/v1")

	// 注册公开路由
	apis.RegisterPublicRoutes(v1, orderHandler, paymentHandler, middleware.NewIPRateLimiter(cfg.Order.QueryRatePerMinute), logger)
	apis.RegisterAnnouncementRoutes(v1, announcementHandler)

	// 注册管理员API路由，权限在服务层校验
	adminRouter := v1.Group("/admin")
	adminRouter.Use(middleware.Session(services.Sessions))
	admin.RegisterAdminRoutes(adminRouter, orderAdminHandler, cardAdminHandler, productAdminHandler, announcementAdminHandler)
	adminRouter.GET("/status", systemHandler.GetShopStatus)

	return router
}
