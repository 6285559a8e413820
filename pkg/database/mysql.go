package database

import (
	"context"
	"fmt"
	"time"

	"cardshop/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewConnection 按配置的驱动创建数据库连接
func NewConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.Driver == "sqlite" {
		return NewSQLiteConnection(cfg.Path)
	}
	return NewMySQLConnection(cfg)
}

// NewMySQLConnection 创建一个新的MySQL连接
func NewMySQLConnection(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	// 锁等待超时限制在10秒内，超时后由调用方按暂时不可用处理
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=Local&innodb_lock_wait_timeout=10",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 配置连接池
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	return db, nil
}
