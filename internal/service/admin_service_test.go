package service

import (
	"context"
	"testing"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteOrderRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 3)
	order := env.seedOrder(t, product, 1)

	for _, caller := range []model.Caller{model.Anonymous, {UserID: "u1", Role: model.RoleUser}} {
		_, err := env.admin.CompleteOrder(context.Background(), caller, order.ID, "")
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindPermission))
		assert.Contains(t, err.Error(), constants.ErrRequireAdmin)
	}

	assert.Equal(t, model.OrderStatusPending, env.reload(t, order.ID).Status)
	assert.Equal(t, int64(3), env.available(t, product.ID))
}

func TestCompleteOrder(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 3)
	order := env.seedOrder(t, product, 2)
	ctx := context.Background()

	_, err := env.admin.CompleteOrder(ctx, adminCaller, "not-a-uuid", "")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = env.admin.CompleteOrder(ctx, adminCaller, uuid.NewString(), "")
	assert.True(t, apperr.IsKind(err, apperr.KindOrderNotFound))

	outcome, err := env.admin.CompleteOrder(ctx, adminCaller, order.ID, "  ")
	require.NoError(t, err)
	assert.Len(t, outcome.Cards, 2)
	assert.Equal(t, model.OrderStatusCompleted, outcome.Order.Status)
	assert.Equal(t, constants.DefaultAdminRemark, outcome.Order.AdminRemark.String)
	assert.False(t, outcome.Order.GatewayTradeNo.Valid)
	assert.True(t, outcome.Order.PaidAt.Valid)
	assert.Equal(t, 1, env.notifier.count())

	_, err = env.admin.CompleteOrder(ctx, adminCaller, order.ID, "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	assert.Equal(t, int64(1), env.available(t, product.ID))
}

func TestPaymentAfterCompleteOrderRecordsTradeNo(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 2)
	order := env.seedOrder(t, product, 1)
	ctx := context.Background()

	_, err := env.admin.CompleteOrder(ctx, adminCaller, order.ID, "")
	require.NoError(t, err)
	assert.False(t, env.reload(t, order.ID).GatewayTradeNo.Valid)

	outcome, err := env.fulfillment.HandlePaymentSuccess(ctx, order.OrderNo, "GATEWAY-T9")
	require.NoError(t, err)
	assert.True(t, outcome.Idempotent)
	assert.Equal(t, "GATEWAY-T9", outcome.Order.GatewayTradeNo.String)

	stored := env.reload(t, order.ID)
	assert.Equal(t, model.OrderStatusCompleted, stored.Status)
	assert.True(t, stored.GatewayTradeNo.Valid)
	assert.Equal(t, "GATEWAY-T9", stored.GatewayTradeNo.String)

	_, err = env.fulfillment.HandlePaymentSuccess(ctx, order.OrderNo, "GATEWAY-OTHER")
	require.NoError(t, err)
	assert.Equal(t, "GATEWAY-T9", env.reload(t, order.ID).GatewayTradeNo.String)
	assert.Equal(t, int64(1), env.available(t, product.ID))
	assert.Equal(t, 1, env.notifier.count())
}

func TestCompleteOrderAwaitingStock(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 0)
	order := env.seedOrder(t, product, 1)
	ctx := context.Background()

	_, err := env.fulfillment.HandlePaymentSuccess(ctx, order.OrderNo, "T1")
	require.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	_, err = env.admin.CompleteOrder(ctx, adminCaller, order.ID, "补货后发货")
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	env.addCards(t, product.ID, 1)
	outcome, err := env.admin.CompleteOrder(ctx, adminCaller, order.ID, "补货后发货")
	require.NoError(t, err)
	assert.Equal(t, "补货后发货", outcome.Order.AdminRemark.String)
	assert.Equal(t, "T1", outcome.Order.GatewayTradeNo.String)
}

func TestRefundAndRelistCards(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 3)
	order := env.seedOrder(t, product, 2)
	ctx := context.Background()

	outcome, err := env.fulfillment.HandlePaymentSuccess(ctx, order.OrderNo, "T1")
	require.NoError(t, err)

	refunded, err := env.admin.RefundOrder(ctx, adminCaller, order.ID, "买家申请退款")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, refunded.Status)

	_, err = env.admin.RefundOrder(ctx, adminCaller, order.ID, "")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	cards, err := env.cards.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	for _, c := range cards {
		assert.Equal(t, model.CardStatusRefunded, c.Status)
	}

	// 已退款订单的回调仍然确认成功
	again, err := env.fulfillment.HandlePaymentSuccess(ctx, order.OrderNo, "T1")
	require.NoError(t, err)
	assert.True(t, again.Idempotent)

	_, err = env.stock.AvailableStock(ctx, product.ID)
	require.NoError(t, err)

	ids := []string{outcome.Cards[0].ID, outcome.Cards[1].ID, uuid.NewString()}
	count, err := env.admin.RelistRefundedCards(ctx, adminCaller, ids)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, int64(3), env.available(t, product.ID))
	assert.False(t, env.mini.Exists(stockCacheKey(product.ID)))

	count, err = env.admin.RelistRefundedCards(ctx, adminCaller, ids)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRelistRefundedCardsValidation(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 1)
	order := env.seedOrder(t, product, 1)
	ctx := context.Background()

	outcome, err := env.fulfillment.HandlePaymentSuccess(ctx, order.OrderNo, "T1")
	require.NoError(t, err)
	_, err = env.admin.RefundOrder(ctx, adminCaller, order.ID, "")
	require.NoError(t, err)

	_, err = env.admin.RelistRefundedCards(ctx, adminCaller, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, constants.ErrNoCardsSelected, apperr.Message(err, ""))

	_, err = env.admin.RelistRefundedCards(ctx, model.Caller{UserID: "u1", Role: model.RoleUser}, []string{outcome.Cards[0].ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), constants.ErrRequireAdmin)
	assert.Equal(t, int64(0), env.available(t, product.ID))
}

func TestCreateCards(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, 0)
	ctx := context.Background()

	_, err := env.admin.CreateCards(ctx, adminCaller, "bad-id", "A", false)
	assert.Equal(t, constants.ErrInvalidProductID, apperr.Message(err, ""))

	_, err = env.admin.CreateCards(ctx, adminCaller, product.ID, " \n\n ", false)
	assert.Equal(t, constants.ErrCardContentEmpty, apperr.Message(err, ""))

	_, err = env.admin.CreateCards(ctx, model.Anonymous, product.ID, "A", false)
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))

	n, err := env.admin.CreateCards(ctx, adminCaller, product.ID, "A\nB\n A \n", true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = env.admin.CreateCards(ctx, adminCaller, product.ID, "B\nC", true)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = env.admin.CreateCards(ctx, adminCaller, product.ID, "C", false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, int64(4), env.available(t, product.ID))
}

func TestCreateProductAndListOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.admin.CreateProduct(ctx, adminCaller, "", decimal.NewFromInt(1))
	assert.Equal(t, constants.ErrProductNameEmpty, apperr.Message(err, ""))
	_, err = env.admin.CreateProduct(ctx, adminCaller, "卡", decimal.Zero)
	assert.Equal(t, constants.ErrInvalidPrice, apperr.Message(err, ""))

	product, err := env.admin.CreateProduct(ctx, adminCaller, "会员月卡", decimal.RequireFromString("15.5"))
	require.NoError(t, err)
	env.seedOrder(t, product, 1)
	env.seedOrder(t, product, 1)

	_, _, err = env.admin.ListOrders(ctx, model.Anonymous, model.OrderFilter{})
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))

	orders, total, err := env.admin.ListOrders(ctx, adminCaller, model.OrderFilter{PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, orders, 1)
}
