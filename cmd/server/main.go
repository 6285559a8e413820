package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cardshop/config"
	"cardshop/internal/api"
	"cardshop/internal/repository"
	"cardshop/internal/scheduler"
	"cardshop/pkg/async"
	"cardshop/pkg/database"
	"cardshop/pkg/email"
	"cardshop/pkg/logger"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 初始化日志
	logger := logger.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFile)
	defer logger.Close()

	if cfg.Payment.Secret == "" {
		logger.Warn("LDC_SECRET 未配置，支付回调将全部返回 fail")
	}

	// 初始化数据库连接
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("无法链接到数据库", err)
	}
	defer db.Close()

	if err := repository.Migrate(context.Background(), db); err != nil {
		logger.Fatal("初始化数据表失败", err)
	}

	// 初始化Redis连接
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatal("无法链接到Redis", err)
	}
	defer redisClient.Close()

	// 初始化邮件服务
	emailService, err := email.NewService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	}, logger)
	if err != nil {
		logger.Fatal("初始化邮件服务失败", err)
	}

	// 创建异步工作器
	worker := async.NewWorker(100, logger)
	worker.Start(5) // 启动5个工作协程

	services := api.NewServices(cfg, logger, db, redisClient, worker, emailService)

	// 初始化订单调度器
	orderScheduler := scheduler.NewOrderScheduler(services.Orders, logger)
	orderScheduler.Start()

	// 初始化API路由
	router := api.SetupRouter(cfg, logger, services)

	// 创建HTTP服务器
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.APIPort),
		Handler: router,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info("服务器启动", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("启动服务器失败", err)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("服务器被强制关闭", err)
	}

	// 先停止调度器，再等待邮件任务发送完毕
	orderScheduler.Stop()
	worker.Stop()

	logger.Info("服务器已正常退出")
}
