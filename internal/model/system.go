package model

import "github.com/shopspring/decimal"

// ShopStatus 商城运营概况
type ShopStatus struct {
	ActiveProducts int64                 `json:"active_products"`
	AvailableCards int64                 `json:"available_cards"`
	OrdersByStatus map[OrderStatus]int64 `json:"orders_by_status"`
	AwaitingStock  int64                 `json:"awaiting_stock"`
	Revenue        decimal.Decimal       `json:"revenue"` // 已完成订单金额合计
}
