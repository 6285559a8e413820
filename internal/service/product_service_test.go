package service

import (
	"context"
	"testing"

	"cardshop/internal/apperr"
	"cardshop/internal/constants"
	"cardshop/internal/model"
	"cardshop/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductManagement(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProductService(env.products, env.stock, logger.NewNop())
	ctx := context.Background()
	product := env.seedProduct(t, 3)

	price := decimal.RequireFromString("12.345")
	updated, err := svc.UpdateProduct(ctx, adminCaller, product.ID, ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("12.35")))
	assert.Equal(t, product.Name, updated.Name)

	_, err = svc.SetActive(ctx, adminCaller, product.ID, false)
	require.NoError(t, err)

	// 下架商品不在前台展示，但管理员可见
	storefront, err := env.orderSvc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, storefront)

	all, err := svc.ListProducts(ctx, adminCaller)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
	assert.Equal(t, int64(3), all[0].Stock)
}

func TestProductManagementErrors(t *testing.T) {
	env := newTestEnv(t)
	svc := NewProductService(env.products, env.stock, logger.NewNop())
	ctx := context.Background()
	product := env.seedProduct(t, 0)

	_, err := svc.SetActive(ctx, model.Anonymous, product.ID, false)
	assert.True(t, apperr.IsKind(err, apperr.KindPermission))

	_, err = svc.SetActive(ctx, adminCaller, "bad-id", false)
	assert.Equal(t, constants.ErrInvalidProductID, apperr.Message(err, ""))

	_, err = svc.SetActive(ctx, adminCaller, uuid.NewString(), false)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	zero := decimal.Zero
	_, err = svc.UpdateProduct(ctx, adminCaller, product.ID, ProductUpdate{Price: &zero})
	assert.Equal(t, constants.ErrInvalidPrice, apperr.Message(err, ""))

	blank := "  "
	_, err = svc.UpdateProduct(ctx, adminCaller, product.ID, ProductUpdate{Name: &blank})
	assert.Equal(t, constants.ErrProductNameEmpty, apperr.Message(err, ""))
}
