package main

import (
	"context"
	"fmt"

	"cardshop/config"
	"cardshop/internal/api"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/async"
	"cardshop/pkg/database"
	"cardshop/pkg/email"
	"cardshop/pkg/logger"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// operator 命令行操作者，拥有管理员权限
var operator = model.Caller{UserID: "shopctl", Role: model.RoleAdmin}

// app 命令行运行所需的连接和服务
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	db       *sqlx.DB
	redis    *redis.Client
	worker   *async.Worker
	services *api.Services
}

// openApp 加载配置并建立连接
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFile)

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化数据表失败: %w", err)
	}

	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}

	mailer, err := email.NewService(email.Config{
		Host:     cfg.Email.Host,
		Port:     cfg.Email.Port,
		Username: cfg.Email.Username,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	}, log)
	if err != nil {
		db.Close()
		redisClient.Close()
		return nil, err
	}

	worker := async.NewWorker(10, log)
	worker.Start(1)

	return &app{
		cfg:      cfg,
		logger:   log,
		db:       db,
		redis:    redisClient,
		worker:   worker,
		services: api.NewServices(cfg, log, db, redisClient, worker, mailer),
	}, nil
}

// Close 等待邮件任务完成后关闭连接
func (a *app) Close() {
	a.worker.Stop()
	a.redis.Close()
	a.db.Close()
	a.logger.Close()
}
