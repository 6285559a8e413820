package model

import (
	"database/sql"
	"time"
)

// CardStatus 卡密状态
type CardStatus string

const (
	CardStatusAvailable CardStatus = "available"
	CardStatusLocked    CardStatus = "locked"
	CardStatusIssued    CardStatus = "issued"
	CardStatusRefunded  CardStatus = "refunded"
)

// Card 卡密库存
//
// OrderID 仅在 locked、issued、refunded 状态下非空。
type Card struct {
	ID        string         `db:"id" json:"id"`
	Seq       int64          `db:"seq" json:"-"`
	ProductID string         `db:"product_id" json:"product_id"`
	Content   string         `db:"content" json:"content"`
	Status    CardStatus     `db:"status" json:"status"`
	OrderID   sql.NullString `db:"order_id" json:"order_id,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
	IssuedAt  sql.NullTime   `db:"issued_at" json:"issued_at,omitempty"`
}
