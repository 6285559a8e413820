package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id CHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS orders (
		id CHAR(36) NOT NULL PRIMARY KEY,
		order_no VARCHAR(32) NOT NULL,
		product_id CHAR(36) NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL,
		email VARCHAR(255) NOT NULL,
		query_password VARCHAR(100) NOT NULL,
		payment_method VARCHAR(16) NOT NULL,
		status VARCHAR(16) NOT NULL,
		gateway_trade_no VARCHAR(64) NULL,
		admin_remark VARCHAR(255) NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		paid_at DATETIME(3) NULL,
		completed_at DATETIME(3) NULL,
		UNIQUE KEY uk_orders_order_no (order_no),
		UNIQUE KEY uk_orders_trade_no (gateway_trade_no),
		KEY idx_orders_email (email),
		KEY idx_orders_status_created (status, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS cards (
		seq BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		id VARCHAR(64) NOT NULL,
		product_id CHAR(36) NOT NULL,
		content TEXT NOT NULL,
		status VARCHAR(16) NOT NULL,
		order_id CHAR(36) NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		issued_at DATETIME(3) NULL,
		UNIQUE KEY uk_cards_id (id),
		KEY idx_cards_product_status (product_id, status, seq),
		KEY idx_cards_order (order_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id CHAR(36) NOT NULL PRIMARY KEY,
		title VARCHAR(100) NOT NULL,
		content TEXT NOT NULL,
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		sort_order INT NOT NULL DEFAULT 0,
		start_at DATETIME(3) NULL,
		end_at DATETIME(3) NULL,
		created_at DATETIME(3) NOT NULL,
		updated_at DATETIME(3) NOT NULL,
		KEY idx_announcements_active (is_active, sort_order)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		price DECIMAL(10,2) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT NOT NULL PRIMARY KEY,
		order_no TEXT NOT NULL UNIQUE,
		product_id TEXT NOT NULL,
		product_name TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL,
		total_amount DECIMAL(12,2) NOT NULL,
		email TEXT NOT NULL,
		query_password TEXT NOT NULL,
		payment_method TEXT NOT NULL,
		status TEXT NOT NULL,
		gateway_trade_no TEXT NULL UNIQUE,
		admin_remark TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		paid_at DATETIME NULL,
		completed_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_email ON orders (email)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS cards (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		product_id TEXT NOT NULL,
		content TEXT NOT NULL,
		status TEXT NOT NULL,
		order_id TEXT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		issued_at DATETIME NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_product_status ON cards (product_id, status, seq)`,
	`CREATE INDEX IF NOT EXISTS idx_cards_order ON cards (order_id)`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		sort_order INTEGER NOT NULL DEFAULT 0,
		start_at DATETIME NULL,
		end_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
}

// Migrate 创建表结构，已存在的表保持不变
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements := mysqlSchema
	if db.DriverName() == "sqlite" {
		statements = sqliteSchema
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("初始化表结构失败: %w", err)
		}
	}
	return nil
}
