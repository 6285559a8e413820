package repository

import (
	"context"
	"fmt"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"

	"github.com/jmoiron/sqlx"
)

// CardRepository 卡密库存存储库
type CardRepository interface {
	CreateBatch(ctx context.Context, cards []model.Card) (int, error)
	ExistingContents(ctx context.Context, productID string, contents []string) (map[string]bool, error)
	// Allocate 按入库顺序选取 quantity 张可用卡密并标记为已发放，库存不足时返回库存不足错误
	Allocate(ctx context.Context, productID string, quantity int, orderID string) ([]model.Card, error)
	// MarkRefundedByOrder 将订单已发放的卡密标记为已退款，保留订单关联
	MarkRefundedByOrder(ctx context.Context, orderID string) (int64, error)
	// RelistRefunded 将处于已退款状态的卡密重新上架，返回实际上架的卡密
	RelistRefunded(ctx context.Context, ids []string) ([]model.Card, error)
	ListByOrder(ctx context.Context, orderID string) ([]model.Card, error)
	CountAvailable(ctx context.Context, productID string) (int64, error)
	WithTx(tx *sqlx.Tx) CardRepository
}

type cardRepository struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// NewCardRepository 创建卡密存储库
func NewCardRepository(db *sqlx.DB) CardRepository {
	return &cardRepository{db: db}
}

// WithTx 返回在给定事务中操作的存储库
func (r *cardRepository) WithTx(tx *sqlx.Tx) CardRepository {
	return &cardRepository{db: r.db, tx: tx}
}

func (r *cardRepository) ext() sqlx.ExtContext {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// CreateBatch 批量入库卡密，状态一律为可用
func (r *cardRepository) CreateBatch(ctx context.Context, cards []model.Card) (int, error) {
	query := `
		INSERT INTO cards (id, product_id, content, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	for i := range cards {
		cards[i].Status = model.CardStatusAvailable
		cards[i].CreatedAt = now
		cards[i].UpdatedAt = now
		if _, err := r.ext().ExecContext(ctx, query,
			cards[i].ID, cards[i].ProductID, cards[i].Content, string(cards[i].Status), now, now,
		); err != nil {
			return i, fmt.Errorf("入库卡密失败: %w", err)
		}
	}
	return len(cards), nil
}

// ExistingContents 返回商品下已存在的卡密内容
func (r *cardRepository) ExistingContents(ctx context.Context, productID string, contents []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(contents) == 0 {
		return existing, nil
	}

	query, args, err := sqlx.In(`SELECT content FROM cards WHERE product_id = ? AND content IN (?)`, productID, contents)
	if err != nil {
		return nil, err
	}

	var found []string
	if err := sqlx.SelectContext(ctx, r.ext(), &found, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("查询已有卡密失败: %w", err)
	}
	for _, c := range found {
		existing[c] = true
	}
	return existing, nil
}

// allocateQuery 按入库顺序选取可用卡密，MySQL 下等待其他事务释放行锁
func allocateQuery(db *sqlx.DB) string {
	return `
		SELECT * FROM cards
		WHERE product_id = ? AND status = ?
		ORDER BY seq ASC
		LIMIT ?` + forUpdate(db)
}

// Allocate 原子地选取并发放卡密
//
// 必须在事务中调用。MySQL 下候选行以 FOR UPDATE 加锁，并发分配时后到的事务等待锁释放后
// 重新判断状态并继续选取后续卡密，不会因其他事务回滚而误报库存不足；
// 更新语句再次校验 status，影响行数不等于 quantity 时整体失败。
func (r *cardRepository) Allocate(ctx context.Context, productID string, quantity int, orderID string) ([]model.Card, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("无效的发放数量: %d", quantity)
	}

	cards := []model.Card{}
	if err := sqlx.SelectContext(ctx, r.ext(), &cards, allocateQuery(r.db), productID, string(model.CardStatusAvailable), quantity); err != nil {
		return nil, fmt.Errorf("查询可用卡密失败: %w", err)
	}
	if len(cards) < quantity {
		return nil, apperr.Wrap(apperr.KindInsufficientStock, constants.ErrInsufficientStock,
			fmt.Errorf("商品 %s 需要 %d 张卡密，可用 %d 张", productID, quantity, len(cards)))
	}

	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}

	now := time.Now()
	update, args, err := sqlx.In(
		`UPDATE cards SET status = ?, order_id = ?, issued_at = ?, updated_at = ? WHERE id IN (?) AND status = ?`,
		string(model.CardStatusIssued), orderID, now, now, ids, string(model.CardStatusAvailable),
	)
	if err != nil {
		return nil, err
	}

	result, err := r.ext().ExecContext(ctx, r.db.Rebind(update), args...)
	if err != nil {
		return nil, fmt.Errorf("发放卡密失败: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected != int64(quantity) {
		return nil, apperr.Wrap(apperr.KindConflict, constants.ErrOrderConflict,
			fmt.Errorf("发放卡密时仅更新 %d/%d 行", affected, quantity))
	}

	for i := range cards {
		cards[i].Status = model.CardStatusIssued
		cards[i].OrderID.String, cards[i].OrderID.Valid = orderID, true
		cards[i].IssuedAt.Time, cards[i].IssuedAt.Valid = now, true
		cards[i].UpdatedAt = now
	}
	return cards, nil
}

// MarkRefundedByOrder 将订单的已发放卡密标记为已退款
func (r *cardRepository) MarkRefundedByOrder(ctx context.Context, orderID string) (int64, error) {
	query := `UPDATE cards SET status = ?, updated_at = ? WHERE order_id = ? AND status = ?`
	result, err := r.ext().ExecContext(ctx, query,
		string(model.CardStatusRefunded), time.Now(), orderID, string(model.CardStatusIssued))
	if err != nil {
		return 0, fmt.Errorf("标记退款卡密失败: %w", err)
	}
	return result.RowsAffected()
}

// RelistRefunded 重新上架已退款卡密，非已退款状态的卡密被跳过
func (r *cardRepository) RelistRefunded(ctx context.Context, ids []string) ([]model.Card, error) {
	if len(ids) == 0 {
		return []model.Card{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM cards WHERE id IN (?) AND status = ?`+forUpdate(r.db),
		ids, string(model.CardStatusRefunded))
	if err != nil {
		return nil, err
	}
	cards := []model.Card{}
	if err := sqlx.SelectContext(ctx, r.ext(), &cards, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("查询已退款卡密失败: %w", err)
	}
	if len(cards) == 0 {
		return cards, nil
	}

	refunded := make([]string, len(cards))
	for i, c := range cards {
		refunded[i] = c.ID
	}

	now := time.Now()
	update, args, err := sqlx.In(
		`UPDATE cards SET status = ?, order_id = NULL, issued_at = NULL, updated_at = ? WHERE id IN (?) AND status = ?`,
		string(model.CardStatusAvailable), now, refunded, string(model.CardStatusRefunded),
	)
	if err != nil {
		return nil, err
	}
	if _, err := r.ext().ExecContext(ctx, r.db.Rebind(update), args...); err != nil {
		return nil, fmt.Errorf("重新上架卡密失败: %w", err)
	}

	for i := range cards {
		cards[i].Status = model.CardStatusAvailable
		cards[i].OrderID.String, cards[i].OrderID.Valid = "", false
		cards[i].IssuedAt.Valid = false
		cards[i].UpdatedAt = now
	}
	return cards, nil
}

// ListByOrder 获取订单关联的卡密
func (r *cardRepository) ListByOrder(ctx context.Context, orderID string) ([]model.Card, error) {
	cards := []model.Card{}
	query := `SELECT * FROM cards WHERE order_id = ? ORDER BY seq ASC`
	if err := sqlx.SelectContext(ctx, r.ext(), &cards, query, orderID); err != nil {
		return nil, fmt.Errorf("查询订单卡密失败: %w", err)
	}
	return cards, nil
}

// CountAvailable 统计商品可用库存
func (r *cardRepository) CountAvailable(ctx context.Context, productID string) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM cards WHERE product_id = ? AND status = ?`
	if err := sqlx.GetContext(ctx, r.ext(), &count, query, productID, string(model.CardStatusAvailable)); err != nil {
		return 0, fmt.Errorf("统计库存失败: %w", err)
	}
	return count, nil
}
