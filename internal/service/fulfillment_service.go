package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// StockInvalidator 库存缓存失效，失败不影响调用方
type StockInvalidator interface {
	Invalidate(ctx context.Context, productID string)
}

// DeliveryNotifier 卡密发放后的通知
type DeliveryNotifier interface {
	NotifyCardsIssued(order *model.Order, cards []model.Card)
}

// FulfillmentOutcome 发货结果
type FulfillmentOutcome struct {
	Order *model.Order
	Cards []model.Card
	// Idempotent 订单此前已完成发货，本次未分配卡密
	Idempotent bool
}

// Contents 返回已发放的卡密内容
func (o *FulfillmentOutcome) Contents() []string {
	contents := make([]string, len(o.Cards))
	for i, c := range o.Cards {
		contents[i] = c.Content
	}
	return contents
}

// FulfillmentService 订单发货服务
//
// 分配卡密和迁移订单状态在同一个事务内完成；订单行上的锁使同一订单的并发回调串行执行。
type FulfillmentService struct {
	store     *repository.Store
	orderRepo repository.OrderRepository
	cardRepo  repository.CardRepository
	stock     StockInvalidator
	notifier  DeliveryNotifier
	logger    *logger.Logger
}

// NewFulfillmentService 创建发货服务
func NewFulfillmentService(
	store *repository.Store,
	orderRepo repository.OrderRepository,
	cardRepo repository.CardRepository,
	stock StockInvalidator,
	notifier DeliveryNotifier,
	logger *logger.Logger,
) *FulfillmentService {
	return &FulfillmentService{
		store:     store,
		orderRepo: orderRepo,
		cardRepo:  cardRepo,
		stock:     stock,
		notifier:  notifier,
		logger:    logger,
	}
}

// HandlePaymentSuccess 处理已验签的支付成功通知
//
// 已完成或已退款的订单直接返回成功；库存不足时订单状态保持不变，只记录网关流水号。
func (s *FulfillmentService) HandlePaymentSuccess(ctx context.Context, orderNo, tradeNo string) (*FulfillmentOutcome, error) {
	var (
		outcome *FulfillmentOutcome
		orderID string
	)

	err := s.store.InTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		order, err := s.orderRepo.WithTx(tx).LockByOrderNo(ctx, orderNo)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperr.Wrap(apperr.KindOrderNotFound, constants.ErrOrderNotFound, fmt.Errorf("订单号 %s", orderNo))
			}
			return err
		}
		orderID = order.ID

		if order.Status.Settled() {
			switch {
			case order.GatewayTradeNo.Valid && order.GatewayTradeNo.String != tradeNo:
				s.logger.Warn("已完成订单收到不同的网关流水号，需要对账",
					"order_no", orderNo, "stored_trade_no", order.GatewayTradeNo.String, "trade_no", tradeNo)
			case !order.GatewayTradeNo.Valid && tradeNo != "":
				// 管理员手动完成的订单之后才收到真实付款
				if _, err := s.orderRepo.WithTx(tx).RecordTradeNo(ctx, order.ID, tradeNo); err != nil {
					return err
				}
				order.GatewayTradeNo = sql.NullString{String: tradeNo, Valid: true}
				s.logger.Warn("已结束订单补记网关流水号，需要对账",
					"order_no", orderNo, "status", order.Status, "trade_no", tradeNo)
			}
			cards, err := s.cardRepo.WithTx(tx).ListByOrder(ctx, order.ID)
			if err != nil {
				return err
			}
			outcome = &FulfillmentOutcome{Order: order, Cards: cards, Idempotent: true}
			return nil
		}

		if !order.Status.Fulfillable() {
			return apperr.Wrap(apperr.KindInvalidState, constants.ErrOrderInvalidState,
				fmt.Errorf("订单 %s 状态为 %s", orderNo, order.Status))
		}

		now := time.Now()
		outcome, err = s.issue(ctx, tx, order, repository.TransitionFields{
			GatewayTradeNo: tradeNo,
			PaidAt:         now,
			CompletedAt:    now,
		})
		return err
	})

	if err != nil {
		if apperr.IsKind(err, apperr.KindInsufficientStock) {
			s.recordAwaitingStock(ctx, orderID, orderNo, tradeNo)
		}
		s.logger.Error("支付回调发货失败", "order_no", orderNo, "trade_no", tradeNo, "kind", apperr.KindOf(err).String(), "error", err)
		return nil, err
	}

	if outcome.Idempotent {
		s.logger.Info("订单已完成，忽略重复回调", "order_no", orderNo, "trade_no", tradeNo)
		return outcome, nil
	}

	s.logger.Info("订单支付成功，卡密已发放", "order_no", orderNo, "trade_no", tradeNo, "cards", len(outcome.Cards))
	s.afterIssue(ctx, outcome)
	return outcome, nil
}

// issue 在事务内为订单分配卡密，并将订单从待支付或已支付迁移到已完成
func (s *FulfillmentService) issue(ctx context.Context, tx *sqlx.Tx, order *model.Order, fields repository.TransitionFields) (*FulfillmentOutcome, error) {
	cards, err := s.cardRepo.WithTx(tx).Allocate(ctx, order.ProductID, order.Quantity, order.ID)
	if err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.WithTx(tx).Transition(ctx, order.ID,
		[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusPaid},
		model.OrderStatusCompleted, fields)
	if err != nil {
		return nil, err
	}

	return &FulfillmentOutcome{Order: updated, Cards: cards}, nil
}

// afterIssue 事务提交后刷新库存缓存并通知买家
func (s *FulfillmentService) afterIssue(ctx context.Context, outcome *FulfillmentOutcome) {
	if s.stock != nil {
		s.stock.Invalidate(ctx, outcome.Order.ProductID)
	}
	if s.notifier != nil {
		s.notifier.NotifyCardsIssued(outcome.Order, outcome.Cards)
	}
}

// recordAwaitingStock 库存不足时在事务外记录网关流水号，订单保持原状态等待补货
func (s *FulfillmentService) recordAwaitingStock(ctx context.Context, orderID, orderNo, tradeNo string) {
	if orderID == "" || tradeNo == "" {
		return
	}
	recorded, err := s.orderRepo.RecordTradeNo(ctx, orderID, tradeNo)
	if err != nil {
		s.logger.Error("记录网关流水号失败", "order_no", orderNo, "trade_no", tradeNo, "error", err)
		return
	}
	if recorded {
		s.logger.Warn("订单已支付但库存不足，等待补货", "order_no", orderNo, "trade_no", tradeNo)
	}
}
