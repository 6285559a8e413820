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
	"cardshop/pkg/payment"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"k8s.io/apimachinery/pkg/util/rand"
)

const (
	orderNoPrefix    = "LDC"
	orderNoSuffixLen = 6
	queryResultLimit = 20
	expireBatchLimit = 100
	defaultPayMethod = "ldc"
)

// CreateOrderInput 下单参数
type CreateOrderInput struct {
	ProductID     string `json:"product_id" validate:"required,uuid"`
	Quantity      int    `json:"quantity" validate:"required,min=1,max=100"`
	Email         string `json:"email" validate:"required,email"`
	QueryPassword string `json:"query_password" validate:"required,min=6,max=32"`
	PaymentMethod string `json:"payment_method" validate:"omitempty,oneof=ldc alipay wechat usdt"`
}

// 各字段校验失败时的提示
var createOrderMessages = map[string]string{
	"ProductID":     constants.ErrInvalidProductID,
	"Quantity":      constants.ErrInvalidQuantity,
	"Email":         constants.ErrInvalidEmail,
	"QueryPassword": constants.ErrPasswordLength,
	"PaymentMethod": constants.ErrInvalidPayMethod,
}

// CreateOrderResult 下单结果
type CreateOrderResult struct {
	Order  *model.Order `json:"order"`
	PayURL string       `json:"pay_url"`
}

// OrderView 买家查询到的订单，仅已完成订单附带卡密
type OrderView struct {
	model.Order
	Cards []string `json:"cards,omitempty"`
}

// OrderService 买家侧订单服务
type OrderService struct {
	productRepo *repository.ProductRepository
	orderRepo   repository.OrderRepository
	cardRepo    repository.CardRepository
	stock       *StockCache
	payClient   *payment.Client
	validate    *validator.Validate
	expireAfter time.Duration
	logger      *logger.Logger
}

// NewOrderService 创建订单服务
func NewOrderService(
	productRepo *repository.ProductRepository,
	orderRepo repository.OrderRepository,
	cardRepo repository.CardRepository,
	stock *StockCache,
	payClient *payment.Client,
	expireAfter time.Duration,
	logger *logger.Logger,
) *OrderService {
	return &OrderService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		cardRepo:    cardRepo,
		stock:       stock,
		payClient:   payClient,
		validate:    validator.New(),
		expireAfter: expireAfter,
		logger:      logger,
	}
}

// generateOrderNo 生成订单号：前缀 + 时间 + 随机大写字符
func generateOrderNo(now time.Time) string {
	return orderNoPrefix + now.Format("20060102150405") + strings.ToUpper(rand.String(orderNoSuffixLen))
}

// validationError 将校验错误转换为带提示的业务错误
func validationError(err error, messages map[string]string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := messages[fieldErrs[0].StructField()]; ok {
			return apperr.Wrap(apperr.KindValidation, msg, err)
		}
	}
	return apperr.Wrap(apperr.KindValidation, constants.ErrInvalidParams, err)
}

// CreateOrder 创建待支付订单并返回支付链接
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err, createOrderMessages)
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = defaultPayMethod
	}
	if !s.payClient.Configured() {
		return nil, apperr.New(apperr.KindInternal, constants.ErrPaymentUnavailable)
	}

	product, err := s.productRepo.GetProductByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.New(apperr.KindValidation, constants.ErrProductNotFound)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, apperr.New(apperr.KindValidation, constants.ErrProductNotFound)
	}

	available, err := s.cardRepo.CountAvailable(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if available < int64(input.Quantity) {
		return nil, apperr.New(apperr.KindInsufficientStock, constants.ErrInsufficientStock)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.QueryPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("加密查询密码失败: %w", err)
	}

	now := time.Now()
	order := &model.Order{
		ID:            uuid.NewString(),
		OrderNo:       generateOrderNo(now),
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      input.Quantity,
		UnitPrice:     product.Price,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(input.Quantity))),
		Email:         input.Email,
		QueryPassword: string(hash),
		PaymentMethod: input.PaymentMethod,
		Status:        model.OrderStatusPending,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("创建订单失败", "product_id", product.ID, "error", err)
		return nil, err
	}

	payURL := s.payClient.BuildPayURL(payment.PayRequest{
		OrderNo: order.OrderNo,
		Name:    product.Name,
		Money:   order.TotalAmount,
		Type:    payment.GatewayType(order.PaymentMethod),
	})

	s.logger.Info("创建订单", "order_no", order.OrderNo, "product_id", product.ID, "quantity", order.Quantity,
		"amount", order.TotalAmount.StringFixed(2))
	return &CreateOrderResult{Order: order, PayURL: payURL}, nil
}

// QueryOrders 按订单号或邮箱和查询密码查询订单
func (s *OrderService) QueryOrders(ctx context.Context, orderNoOrEmail, password string) ([]OrderView, error) {
	orderNoOrEmail = strings.TrimSpace(orderNoOrEmail)
	if orderNoOrEmail == "" {
		return nil, apperr.New(apperr.KindValidation, constants.ErrQueryEmpty)
	}
	if password == "" {
		return nil, apperr.New(apperr.KindValidation, constants.ErrQueryPassword)
	}

	orders, err := s.orderRepo.FindByOrderNoOrEmail(ctx, orderNoOrEmail, queryResultLimit)
	if err != nil {
		return nil, err
	}

	views := []OrderView{}
	for _, order := range orders {
		if bcrypt.CompareHashAndPassword([]byte(order.QueryPassword), []byte(password)) != nil {
			continue
		}
		view := OrderView{Order: order}
		if order.Status == model.OrderStatusCompleted {
			cards, err := s.cardRepo.ListByOrder(ctx, order.ID)
			if err != nil {
				return nil, err
			}
			for _, c := range cards {
				view.Cards = append(view.Cards, c.Content)
			}
		}
		views = append(views, view)
	}

	if len(views) == 0 {
		return nil, apperr.New(apperr.KindOrderNotFound, constants.ErrQueryNoMatch)
	}
	return views, nil
}

// ExpireStaleOrders 过期超时未支付的订单，返回过期数量
func (s *OrderService) ExpireStaleOrders(ctx context.Context, now time.Time) (int, error) {
	orders, err := s.orderRepo.ListStalePending(ctx, now.Add(-s.expireAfter), expireBatchLimit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, order := range orders {
		ok, err := s.orderRepo.ExpirePending(ctx, order.ID)
		if err != nil {
			s.logger.Error("过期订单失败", "order_no", order.OrderNo, "error", err)
			continue
		}
		if ok {
			expired++
			s.logger.Info("订单超时未支付，已过期", "order_no", order.OrderNo)
		}
	}
	return expired, nil
}

// CountAwaitingStock 统计已收到支付回调但因库存不足尚未发货的订单
func (s *OrderService) CountAwaitingStock(ctx context.Context) (int, error) {
	_, total, err := s.orderRepo.List(ctx, model.OrderFilter{AwaitingStock: true, Page: 1, PageSize: 1})
	return total, err
}

// ListProducts 获取上架商品及可用库存
func (s *OrderService) ListProducts(ctx context.Context) ([]model.ProductWithStock, error) {
	products, err := s.productRepo.GetActiveProducts(ctx)
	if err != nil {
		s.logger.Error("获取商品列表失败", "error", err)
		return nil, err
	}

	result := make([]model.ProductWithStock, 0, len(products))
	for _, p := range products {
		stock, err := s.stock.AvailableStock(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, model.ProductWithStock{Product: p, Stock: stock})
	}
	return result, nil
}
