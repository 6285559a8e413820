package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // 待支付
	OrderStatusPaid      OrderStatus = "paid"      // 已支付，待发货
	OrderStatusCompleted OrderStatus = "completed" // 已完成，卡密已发放
	OrderStatusExpired   OrderStatus = "expired"   // 超时未支付
	OrderStatusRefunded  OrderStatus = "refunded"  // 已退款
)

// Fulfillable 订单是否处于可发货状态
func (s OrderStatus) Fulfillable() bool {
	return s == OrderStatusPending || s == OrderStatusPaid
}

// Settled 订单是否已经完成过发货
func (s OrderStatus) Settled() bool {
	return s == OrderStatusCompleted || s == OrderStatusRefunded
}

// Order 订单模型
type Order struct {
	ID             string          `db:"id" json:"id"`
	OrderNo        string          `db:"order_no" json:"order_no"`
	ProductID      string          `db:"product_id" json:"product_id"`
	ProductName    string          `db:"product_name" json:"product_name"`
	Quantity       int             `db:"quantity" json:"quantity"`
	UnitPrice      decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalAmount    decimal.Decimal `db:"total_amount" json:"total_amount"`
	Email          string          `db:"email" json:"email"`
	QueryPassword  string          `db:"query_password" json:"-"`
	PaymentMethod  string          `db:"payment_method" json:"payment_method"`
	Status         OrderStatus     `db:"status" json:"status"`
	GatewayTradeNo sql.NullString  `db:"gateway_trade_no" json:"gateway_trade_no,omitempty"`
	AdminRemark    sql.NullString  `db:"admin_remark" json:"admin_remark,omitempty"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
	PaidAt         sql.NullTime    `db:"paid_at" json:"paid_at,omitempty"`
	CompletedAt    sql.NullTime    `db:"completed_at" json:"completed_at,omitempty"`
}

// OrderFilter 管理员订单列表过滤条件
type OrderFilter struct {
	Status        OrderStatus
	AwaitingStock bool // 已收到支付回调但尚未发货
	Page          int
	PageSize      int
}
