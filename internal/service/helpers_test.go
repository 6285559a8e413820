package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cardshop/internal/model"
	"cardshop/internal/repository"
	"cardshop/pkg/database"
	"cardshop/pkg/logger"
	"cardshop/pkg/payment"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var adminCaller = model.Caller{UserID: "admin-1", Role: model.RoleAdmin}

// recordingNotifier 记录发货通知
type recordingNotifier struct {
	mu     sync.Mutex
	orders []string
}

func (n *recordingNotifier) NotifyCardsIssued(order *model.Order, cards []model.Card) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.OrderNo)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.orders)
}

type testEnv struct {
	db          *sqlx.DB
	redis       *redis.Client
	mini        *miniredis.Miniredis
	orders      repository.OrderRepository
	cards       repository.CardRepository
	products    *repository.ProductRepository
	stock       *StockCache
	notifier    *recordingNotifier
	fulfillment *FulfillmentService
	admin       *AdminService
	orderSvc    *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db))

	mini := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { rdb.Close() })

	log := logger.NewNop()
	store := repository.NewStore(db, 5*time.Second)
	orders := repository.NewOrderRepository(db)
	cards := repository.NewCardRepository(db)
	products := repository.NewProductRepository(db)
	stock := NewStockCache(cards, rdb, log)
	notifier := &recordingNotifier{}
	fulfillment := NewFulfillmentService(store, orders, cards, stock, notifier, log)
	payClient := payment.NewClient("1001", "test-secret", "https://gateway.example.com/epay", "https://shop.example.com")

	return &testEnv{
		db:          db,
		redis:       rdb,
		mini:        mini,
		orders:      orders,
		cards:       cards,
		products:    products,
		stock:       stock,
		notifier:    notifier,
		fulfillment: fulfillment,
		admin:       NewAdminService(store, orders, cards, products, fulfillment, stock, log),
		orderSvc:    NewOrderService(products, orders, cards, stock, payClient, 30*time.Minute, log),
	}
}

func (e *testEnv) seedProduct(t *testing.T, stock int) *model.Product {
	t.Helper()
	product := &model.Product{
		ID:       uuid.NewString(),
		Name:     "Steam 充值卡",
		Price:    decimal.RequireFromString("9.90"),
		IsActive: true,
	}
	require.NoError(t, e.products.Create(context.Background(), product))
	e.addCards(t, product.ID, stock)
	return product
}

func (e *testEnv) addCards(t *testing.T, productID string, n int) {
	t.Helper()
	if n == 0 {
		return
	}
	cards := make([]model.Card, n)
	for i := range cards {
		cards[i] = model.Card{ID: uuid.NewString(), ProductID: productID, Content: fmt.Sprintf("CODE-%s", uuid.NewString()[:8])}
	}
	_, err := e.cards.CreateBatch(context.Background(), cards)
	require.NoError(t, err)
}

func (e *testEnv) seedOrder(t *testing.T, product *model.Product, quantity int) *model.Order {
	t.Helper()
	order := &model.Order{
		ID:            uuid.NewString(),
		OrderNo:       generateOrderNo(time.Now()),
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Email:         "buyer@example.com",
		QueryPassword: "unused",
		PaymentMethod: "ldc",
		Status:        model.OrderStatusPending,
	}
	require.NoError(t, e.orders.Create(context.Background(), order))
	return order
}

func (e *testEnv) available(t *testing.T, productID string) int64 {
	t.Helper()
	n, err := e.cards.CountAvailable(context.Background(), productID)
	require.NoError(t, err)
	return n
}

func (e *testEnv) reload(t *testing.T, orderID string) *model.Order {
	t.Helper()
	order, err := e.orders.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	return order
}
