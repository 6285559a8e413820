package repository

import (
	"context"
	"strings"
	"testing"

	"cardshop/internal/apperr"
	"cardshop/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allocateInTx(t *testing.T, db *sqlx.DB, productID string, quantity int, orderID string) ([]model.Card, error) {
	t.Helper()
	var cards []model.Card
	err := NewStore(db, 0).InTx(context.Background(), func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		cards, err = NewCardRepository(db).WithTx(tx).Allocate(ctx, productID, quantity, orderID)
		return err
	})
	return cards, err
}

func TestCardRepositoryAllocateInInsertionOrder(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)
	seeded := seedCards(t, db, product.ID, 5)
	order := seedOrder(t, db, product, 2)

	cards, err := allocateInTx(t, db, product.ID, 2, order.ID)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, seeded[0].ID, cards[0].ID)
	assert.Equal(t, seeded[1].ID, cards[1].ID)
	for _, c := range cards {
		assert.Equal(t, model.CardStatusIssued, c.Status)
		assert.Equal(t, order.ID, c.OrderID.String)
	}

	repo := NewCardRepository(db)
	available, err := repo.CountAvailable(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), available)

	issued, err := repo.ListByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Len(t, issued, 2)
}

func TestCardRepositoryAllocateInsufficientStock(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)
	seedCards(t, db, product.ID, 1)
	order := seedOrder(t, db, product, 2)

	_, err := allocateInTx(t, db, product.ID, 2, order.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	available, err := NewCardRepository(db).CountAvailable(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), available)
}

func TestCardRepositoryRefundAndRelist(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)
	seedCards(t, db, product.ID, 3)
	order := seedOrder(t, db, product, 2)
	repo := NewCardRepository(db)
	ctx := context.Background()

	issued, err := allocateInTx(t, db, product.ID, 2, order.ID)
	require.NoError(t, err)

	refunded, err := repo.MarkRefundedByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), refunded)

	available, err := repo.CountAvailable(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), available)

	// 未退款和不存在的卡密被跳过
	ids := []string{issued[0].ID, issued[1].ID, uuid.NewString()}
	relisted, err := repo.RelistRefunded(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, relisted, 2)
	for _, c := range relisted {
		assert.Equal(t, model.CardStatusAvailable, c.Status)
		assert.False(t, c.OrderID.Valid)
	}

	again, err := repo.RelistRefunded(ctx, ids)
	require.NoError(t, err)
	assert.Empty(t, again)

	available, err = repo.CountAvailable(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), available)
}

func TestCardRepositoryExistingContents(t *testing.T) {
	db := setupTestDB(t)
	product := seedProduct(t, db)
	seedCards(t, db, product.ID, 2)

	existing, err := NewCardRepository(db).ExistingContents(context.Background(), product.ID,
		[]string{"CODE-000", "CODE-999"})
	require.NoError(t, err)
	assert.True(t, existing["CODE-000"])
	assert.False(t, existing["CODE-999"])
}

func TestAllocateQueryWaitsForLockedRows(t *testing.T) {
	db := setupTestDB(t)

	mysqlDB := sqlx.NewDb(db.DB, "mysql")
	query := allocateQuery(mysqlDB)
	assert.True(t, strings.HasSuffix(query, " FOR UPDATE"))
	assert.NotContains(t, query, "SKIP LOCKED")

	assert.NotContains(t, allocateQuery(db), "FOR UPDATE")
}
