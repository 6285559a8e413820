package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"cardshop/internal/model"
	"cardshop/pkg/database"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func seedProduct(t *testing.T, db *sqlx.DB) *model.Product {
	t.Helper()
	product := &model.Product{
		ID:       uuid.NewString(),
		Name:     "Steam 充值卡",
		Price:    decimal.RequireFromString("9.90"),
		IsActive: true,
	}
	require.NoError(t, NewProductRepository(db).Create(context.Background(), product))
	return product
}

func seedCards(t *testing.T, db *sqlx.DB, productID string, n int) []model.Card {
	t.Helper()
	cards := make([]model.Card, n)
	for i := range cards {
		cards[i] = model.Card{ID: uuid.NewString(), ProductID: productID, Content: fmt.Sprintf("CODE-%03d", i)}
	}
	_, err := NewCardRepository(db).CreateBatch(context.Background(), cards)
	require.NoError(t, err)
	return cards
}

func seedOrder(t *testing.T, db *sqlx.DB, product *model.Product, quantity int) *model.Order {
	t.Helper()
	order := &model.Order{
		ID:            uuid.NewString(),
		OrderNo:       fmt.Sprintf("LDC%d", time.Now().UnixNano()),
		ProductID:     product.ID,
		ProductName:   product.Name,
		Quantity:      quantity,
		UnitPrice:     product.Price,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Email:         "buyer@example.com",
		QueryPassword: "hash",
		PaymentMethod: "ldc",
		Status:        model.OrderStatusPending,
	}
	require.NoError(t, NewOrderRepository(db).Create(context.Background(), order))
	return order
}
