package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/logger"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// requireAdmin 校验调用者是否为管理员
func requireAdmin(caller model.Caller) error {
	if !caller.IsAdmin() {
		return apperr.New(apperr.KindPermission, constants.ErrRequireAdmin)
	}
	return nil
}

// AdminService 管理员订单与库存操作，每个操作都显式接收调用者身份
type AdminService struct {
	store       *repository.Store
	orderRepo   repository.OrderRepository
	cardRepo    repository.CardRepository
	productRepo *repository.ProductRepository
	fulfillment *FulfillmentService
	stock       StockInvalidator
	logger      *logger.Logger
}

// NewAdminService 创建管理员服务
func NewAdminService(
	store *repository.Store,
	orderRepo repository.OrderRepository,
	cardRepo repository.CardRepository,
	productRepo *repository.ProductRepository,
	fulfillment *FulfillmentService,
	stock StockInvalidator,
	logger *logger.Logger,
) *AdminService {
	return &AdminService{
		store:       store,
		orderRepo:   orderRepo,
		cardRepo:    cardRepo,
		productRepo: productRepo,
		fulfillment: fulfillment,
		stock:       stock,
		logger:      logger,
	}
}

// CompleteOrder 管理员手动完成订单并发放卡密
func (s *AdminService) CompleteOrder(ctx context.Context, caller model.Caller, orderID, remark string) (*FulfillmentOutcome, error) {
	if err := requireAdmin(caller); err != nil {
		s.logger.Warn("非管理员尝试手动完成订单", "user_id", caller.UserID, "order_id", orderID)
		return nil, err
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, constants.ErrInvalidOrderID, err)
	}
	remark = strings.TrimSpace(remark)
	if remark == "" {
		remark = constants.DefaultAdminRemark
	}

	var outcome *FulfillmentOutcome
	err := s.store.InTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		order, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if !order.Status.Fulfillable() {
			return apperr.Wrap(apperr.KindInvalidState, constants.ErrOrderInvalidState,
				fmt.Errorf("订单 %s 状态为 %s", order.OrderNo, order.Status))
		}

		now := time.Now()
		outcome, err = s.fulfillment.issue(ctx, tx, order, repository.TransitionFields{
			AdminRemark: remark,
			PaidAt:      now,
			CompletedAt: now,
		})
		return err
	})
	if err != nil {
		s.logger.Error("手动完成订单失败", "order_id", orderID, "admin", caller.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("管理员手动完成订单", "order_no", outcome.Order.OrderNo, "admin", caller.UserID, "cards", len(outcome.Cards))
	s.fulfillment.afterIssue(ctx, outcome)
	return outcome, nil
}

// RelistRefundedCards 将已退款卡密重新上架，返回实际上架数量
func (s *AdminService) RelistRefundedCards(ctx context.Context, caller model.Caller, cardIDs []string) (int, error) {
	if err := requireAdmin(caller); err != nil {
		s.logger.Warn("非管理员尝试重新上架卡密", "user_id", caller.UserID)
		return 0, err
	}
	if len(cardIDs) == 0 {
		return 0, apperr.New(apperr.KindValidation, constants.ErrNoCardsSelected)
	}

	var relisted []model.Card
	err := s.store.InTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		relisted, err = s.cardRepo.WithTx(tx).RelistRefunded(ctx, cardIDs)
		return err
	})
	if err != nil {
		s.logger.Error("重新上架卡密失败", "admin", caller.UserID, "error", err)
		return 0, err
	}

	s.invalidateProducts(ctx, relisted)
	s.logger.Info("重新上架卡密", "admin", caller.UserID, "requested", len(cardIDs), "relisted", len(relisted))
	return len(relisted), nil
}

// CreateCards 批量入库卡密，contents 按行分隔
func (s *AdminService) CreateCards(ctx context.Context, caller model.Caller, productID, contents string, deduplicate bool) (int, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}
	if _, err := uuid.Parse(productID); err != nil {
		return 0, apperr.Wrap(apperr.KindValidation, constants.ErrInvalidProductID, err)
	}

	lines := splitCardContents(contents, deduplicate)
	if len(lines) == 0 {
		return 0, apperr.New(apperr.KindValidation, constants.ErrCardContentEmpty)
	}

	if _, err := s.productRepo.GetProductByID(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, apperr.New(apperr.KindValidation, constants.ErrProductNotFound)
		}
		return 0, err
	}

	var inserted int
	err := s.store.InTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		cards := s.cardRepo.WithTx(tx)
		if deduplicate {
			existing, err := cards.ExistingContents(ctx, productID, lines)
			if err != nil {
				return err
			}
			fresh := lines[:0]
			for _, line := range lines {
				if !existing[line] {
					fresh = append(fresh, line)
				}
			}
			lines = fresh
		}
		if len(lines) == 0 {
			return nil
		}

		batch := make([]model.Card, len(lines))
		for i, line := range lines {
			batch[i] = model.Card{ID: uuid.NewString(), ProductID: productID, Content: line}
		}
		var err error
		inserted, err = cards.CreateBatch(ctx, batch)
		return err
	})
	if err != nil {
		s.logger.Error("入库卡密失败", "product_id", productID, "admin", caller.UserID, "error", err)
		return 0, err
	}

	if inserted > 0 {
		s.stock.Invalidate(ctx, productID)
	}
	s.logger.Info("入库卡密", "product_id", productID, "admin", caller.UserID, "count", inserted)
	return inserted, nil
}

// RefundOrder 退款已完成订单，订单卡密标记为已退款等待重新上架
func (s *AdminService) RefundOrder(ctx context.Context, caller model.Caller, orderID, remark string) (*model.Order, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, constants.ErrInvalidOrderID, err)
	}

	var (
		refunded *model.Order
		cards    int64
	)
	err := s.store.InTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		order, err := s.lockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != model.OrderStatusCompleted {
			return apperr.Wrap(apperr.KindInvalidState, constants.ErrOrderInvalidState,
				fmt.Errorf("订单 %s 状态为 %s", order.OrderNo, order.Status))
		}

		refunded, err = s.orderRepo.WithTx(tx).Transition(ctx, order.ID,
			[]model.OrderStatus{model.OrderStatusCompleted}, model.OrderStatusRefunded,
			repository.TransitionFields{AdminRemark: strings.TrimSpace(remark)})
		if err != nil {
			return err
		}
		cards, err = s.cardRepo.WithTx(tx).MarkRefundedByOrder(ctx, order.ID)
		return err
	})
	if err != nil {
		s.logger.Error("订单退款失败", "order_id", orderID, "admin", caller.UserID, "error", err)
		return nil, err
	}

	s.stock.Invalidate(ctx, refunded.ProductID)
	s.logger.Info("订单已退款", "order_no", refunded.OrderNo, "admin", caller.UserID, "cards", cards)
	return refunded, nil
}

// CreateProduct 创建上架商品
func (s *AdminService) CreateProduct(ctx context.Context, caller model.Caller, name string, price decimal.Decimal) (*model.Product, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindValidation, constants.ErrProductNameEmpty)
	}
	if !price.IsPositive() {
		return nil, apperr.New(apperr.KindValidation, constants.ErrInvalidPrice)
	}

	product := &model.Product{
		ID:       uuid.NewString(),
		Name:     name,
		Price:    price.Round(2),
		IsActive: true,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error("创建商品失败", "name", name, "error", err)
		return nil, err
	}

	s.logger.Info("创建商品", "product_id", product.ID, "name", name, "price", product.Price.StringFixed(2))
	return product, nil
}

// ListOrders 分页获取订单列表
func (s *AdminService) ListOrders(ctx context.Context, caller model.Caller, filter model.OrderFilter) ([]model.Order, int, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, 0, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	return s.orderRepo.List(ctx, filter)
}

// lockOrder 在事务内按ID锁定订单
func (s *AdminService) lockOrder(ctx context.Context, tx *sqlx.Tx, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.WithTx(tx).LockByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Wrap(apperr.KindOrderNotFound, constants.ErrOrderNotFound, fmt.Errorf("订单ID %s", orderID))
		}
		return nil, err
	}
	return order, nil
}

// invalidateProducts 使卡密所属商品的库存缓存失效
func (s *AdminService) invalidateProducts(ctx context.Context, cards []model.Card) {
	seen := make(map[string]bool)
	for _, c := range cards {
		if seen[c.ProductID] {
			continue
		}
		seen[c.ProductID] = true
		s.stock.Invalidate(ctx, c.ProductID)
	}
}

// splitCardContents 按行拆分卡密，去除首尾空白和空行
func splitCardContents(contents string, deduplicate bool) []string {
	var lines []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if deduplicate {
			if seen[line] {
				continue
			}
			seen[line] = true
		}
		lines = append(lines, line)
	}
	return lines
}
