package repository

import (
	"context"
	"fmt"

	"cardshop/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// SystemRepository 商城运营概况存储库
type SystemRepository struct {
	db *sqlx.DB
}

// NewSystemRepository 创建运营概况存储库实例
func NewSystemRepository(db *sqlx.DB) *SystemRepository {
	return &SystemRepository{db: db}
}

// GetShopStatus 统计商品、库存、订单和营业额
func (r *SystemRepository) GetShopStatus(ctx context.Context) (*model.ShopStatus, error) {
	status := model.ShopStatus{OrdersByStatus: map[model.OrderStatus]int64{}}

	// 上架商品数
	err := r.db.GetContext(ctx, &status.ActiveProducts, "SELECT COUNT(*) FROM products WHERE is_active = ?", true)
	if err != nil {
		return nil, fmt.Errorf("统计商品失败: %w", err)
	}

	// 可用卡密数
	err = r.db.GetContext(ctx, &status.AvailableCards, "SELECT COUNT(*) FROM cards WHERE status = ?", string(model.CardStatusAvailable))
	if err != nil {
		return nil, fmt.Errorf("统计卡密失败: %w", err)
	}

	// 各状态订单数
	var rows []struct {
		Status model.OrderStatus `db:"status"`
		Count  int64             `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS n FROM orders GROUP BY status"); err != nil {
		return nil, fmt.Errorf("统计订单失败: %w", err)
	}
	for _, row := range rows {
		status.OrdersByStatus[row.Status] = row.Count
	}

	// 已付款待补货订单数
	err = r.db.GetContext(ctx, &status.AwaitingStock,
		"SELECT COUNT(*) FROM orders WHERE status IN (?, ?) AND gateway_trade_no IS NOT NULL",
		string(model.OrderStatusPending), string(model.OrderStatusPaid))
	if err != nil {
		return nil, fmt.Errorf("统计待补货订单失败: %w", err)
	}

	// 营业额
	var revenue decimal.Decimal
	err = r.db.GetContext(ctx, &revenue, "SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status = ?", string(model.OrderStatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("统计营业额失败: %w", err)
	}
	status.Revenue = revenue.Round(2)

	return &status, nil
}
