package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品模型
type Product struct {
	ID        string          `db:"id" json:"id"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	IsActive  bool            `db:"is_active" json:"is_active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ProductWithStock 带可用库存的商品
type ProductWithStock struct {
	Product
	Stock int64 `json:"stock"`
}
