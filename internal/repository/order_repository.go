package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"

	"github.com/jmoiron/sqlx"
)

// TransitionFields 状态迁移时一并写入的字段，零值表示不修改
//
// GatewayTradeNo 和 PaidAt 只在订单尚未记录时写入，已有值不会被覆盖。
type TransitionFields struct {
	GatewayTradeNo string
	AdminRemark    string
	PaidAt         time.Time
	CompletedAt    time.Time
}

// OrderRepository 订单存储库，只暴露满足状态机约束的操作
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	// LockByOrderNo 在事务内读取订单并加行锁
	LockByOrderNo(ctx context.Context, orderNo string) (*model.Order, error)
	// LockByID 在事务内按ID读取订单并加行锁
	LockByID(ctx context.Context, id string) (*model.Order, error)
	// Transition 比较并交换订单状态，当前状态不在 from 中时返回冲突错误
	Transition(ctx context.Context, id string, from []model.OrderStatus, to model.OrderStatus, fields TransitionFields) (*model.Order, error)
	// RecordTradeNo 在订单尚无网关流水号时记录流水号，不改变状态
	RecordTradeNo(ctx context.Context, id, tradeNo string) (bool, error)
	FindByOrderNoOrEmail(ctx context.Context, key string, limit int) ([]model.Order, error)
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error)
	// ExpirePending 将未收到支付回调的待支付订单标记为过期
	ExpirePending(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)
	WithTx(tx *sqlx.Tx) OrderRepository
}

type orderRepository struct {
	db *sqlx.DB
	tx *sqlx.Tx // 可选的事务连接
}

// NewOrderRepository 创建订单存储库
func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &orderRepository{db: db}
}

// WithTx 返回在给定事务中操作的存储库
func (r *orderRepository) WithTx(tx *sqlx.Tx) OrderRepository {
	return &orderRepository{db: r.db, tx: tx}
}

func (r *orderRepository) ext() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// Create 创建订单
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	query := `
		INSERT INTO orders (
			id, order_no, product_id, product_name, quantity, unit_price, total_amount,
			email, query_password, payment_method, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.ext().ExecContext(ctx, query,
		order.ID, order.OrderNo, order.ProductID, order.ProductName, order.Quantity,
		order.UnitPrice, order.TotalAmount, order.Email, order.QueryPassword,
		order.PaymentMethod, string(order.Status), order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("创建订单失败: %w", err)
	}
	return nil
}

func (r *orderRepository) getOne(ctx context.Context, query string, args ...interface{}) (*model.Order, error) {
	var order model.Order
	if err := sqlx.GetContext(ctx, r.ext(), &order, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// GetByID 根据ID获取订单
func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return r.getOne(ctx, `SELECT * FROM orders WHERE id = ?`, id)
}

// GetByOrderNo 根据订单号获取订单
func (r *orderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	return r.getOne(ctx, `SELECT * FROM orders WHERE order_no = ?`, orderNo)
}

// LockByOrderNo 根据订单号读取订单并加行锁
func (r *orderRepository) LockByOrderNo(ctx context.Context, orderNo string) (*model.Order, error) {
	return r.getOne(ctx, `SELECT * FROM orders WHERE order_no = ?`+forUpdate(r.db), orderNo)
}

// LockByID 根据ID读取订单并加行锁
func (r *orderRepository) LockByID(ctx context.Context, id string) (*model.Order, error) {
	return r.getOne(ctx, `SELECT * FROM orders WHERE id = ?`+forUpdate(r.db), id)
}

// Transition 比较并交换订单状态
func (r *orderRepository) Transition(ctx context.Context, id string, from []model.OrderStatus, to model.OrderStatus, fields TransitionFields) (*model.Order, error) {
	if len(from) == 0 {
		return nil, fmt.Errorf("迁移订单 %s 缺少前置状态", id)
	}

	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(to), time.Now()}

	if fields.GatewayTradeNo != "" {
		sets = append(sets, "gateway_trade_no = COALESCE(gateway_trade_no, ?)")
		args = append(args, fields.GatewayTradeNo)
	}
	if fields.AdminRemark != "" {
		sets = append(sets, "admin_remark = ?")
		args = append(args, fields.AdminRemark)
	}
	if !fields.PaidAt.IsZero() {
		sets = append(sets, "paid_at = COALESCE(paid_at, ?)")
		args = append(args, fields.PaidAt)
	}
	if !fields.CompletedAt.IsZero() {
		sets = append(sets, "completed_at = ?")
		args = append(args, fields.CompletedAt)
	}

	fromStatuses := make([]string, len(from))
	for i, s := range from {
		fromStatuses[i] = string(s)
	}
	args = append(args, id, fromStatuses)

	query, args, err := sqlx.In(
		`UPDATE orders SET `+strings.Join(sets, ", ")+` WHERE id = ? AND status IN (?)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("构建订单迁移语句失败: %w", err)
	}

	result, err := r.ext().ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("迁移订单状态失败: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if affected == 0 {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindConflict, constants.ErrOrderConflict,
			fmt.Errorf("订单 %s 当前状态 %s，期望 %v", current.OrderNo, current.Status, fromStatuses))
	}

	return r.GetByID(ctx, id)
}

// RecordTradeNo 记录网关流水号，已有流水号时不覆盖
func (r *orderRepository) RecordTradeNo(ctx context.Context, id, tradeNo string) (bool, error) {
	query := `UPDATE orders SET gateway_trade_no = ?, updated_at = ? WHERE id = ? AND gateway_trade_no IS NULL`
	result, err := r.ext().ExecContext(ctx, query, tradeNo, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("记录网关流水号失败: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// FindByOrderNoOrEmail 按订单号或邮箱查询订单
func (r *orderRepository) FindByOrderNoOrEmail(ctx context.Context, key string, limit int) ([]model.Order, error) {
	orders := []model.Order{}
	query := `SELECT * FROM orders WHERE order_no = ? OR email = ? ORDER BY created_at DESC LIMIT ?`
	if err := sqlx.SelectContext(ctx, r.ext(), &orders, query, key, key, limit); err != nil {
		return nil, fmt.Errorf("查询订单失败: %w", err)
	}
	return orders, nil
}

// ListStalePending 获取创建时间早于指定时间、且未收到支付回调的待支付订单
func (r *orderRepository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]model.Order, error) {
	orders := []model.Order{}
	query := `
		SELECT * FROM orders
		WHERE status = ? AND created_at < ? AND gateway_trade_no IS NULL
		ORDER BY created_at ASC
		LIMIT ?
	`
	if err := sqlx.SelectContext(ctx, r.ext(), &orders, query, string(model.OrderStatusPending), createdBefore, limit); err != nil {
		return nil, fmt.Errorf("查询过期订单失败: %w", err)
	}
	return orders, nil
}

// ExpirePending 过期待支付订单，订单已记录网关流水号时不做修改
func (r *orderRepository) ExpirePending(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE orders SET status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND gateway_trade_no IS NULL
	`
	result, err := r.ext().ExecContext(ctx, query,
		string(model.OrderStatusExpired), time.Now(), id, string(model.OrderStatusPending))
	if err != nil {
		return false, fmt.Errorf("过期订单失败: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// List 分页获取订单列表
func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	var conds []string
	var args []interface{}

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.AwaitingStock {
		conds = append(conds, "status IN (?, ?) AND gateway_trade_no IS NOT NULL")
		args = append(args, string(model.OrderStatusPending), string(model.OrderStatusPaid))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := sqlx.GetContext(ctx, r.ext(), &total, `SELECT COUNT(*) FROM orders`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("统计订单失败: %w", err)
	}
	if total == 0 {
		return []model.Order{}, 0, nil
	}

	offset := (filter.Page - 1) * filter.PageSize
	orders := []model.Order{}
	query := `SELECT * FROM orders` + where + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	if err := sqlx.SelectContext(ctx, r.ext(), &orders, query, append(args, filter.PageSize, offset)...); err != nil {
		return nil, 0, fmt.Errorf("查询订单列表失败: %w", err)
	}
	return orders, total, nil
}
