package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  total_cents INTEGER NOT NULL,
  stripe_session_id TEXT NOT NULL,
  created_at DATETIME
);`
	orderItems := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price_cents INTEGER NOT NULL,
  seller_id TEXT NOT NULL,
  seller_name TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderItems).Error)

	return db
}

func testOrder(userID, sellerID uuid.UUID, session string, createdAt time.Time) *models.Order {
	orderID := uuid.New()
	return &models.Order{
		ID:              orderID,
		UserID:          userID,
		TotalCents:      3998,
		StripeSessionID: session,
		CreatedAt:       createdAt,
		Items: []models.OrderItem{
			{
				ID:         uuid.New(),
				OrderID:    orderID,
				ProductID:  uuid.New(),
				Name:       "Walnut Desk Organizer",
				Quantity:   2,
				PriceCents: 1999,
				SellerID:   sellerID,
				SellerName: "Ana",
				CreatedAt:  createdAt,
			},
		},
	}
}

func TestCreatePersistsOrderWithItems(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	sellerID := uuid.New()
	created, err := repo.Create(ctx, testOrder(userID, sellerID, "cs_test_1", time.Now()))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	rows, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Items, 1)
	assert.Equal(t, int64(3998), rows[0].TotalCents)
	assert.Equal(t, "Walnut Desk Organizer", rows[0].Items[0].Name)
	assert.Equal(t, sellerID, rows[0].Items[0].SellerID)
	assert.Equal(t, "Ana", rows[0].Items[0].SellerName)
}

func TestCreateAllowsDuplicateSessionIDs(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	sellerID := uuid.New()
	_, err := repo.Create(ctx, testOrder(userID, sellerID, "cs_test_dup", time.Now()))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testOrder(userID, sellerID, "cs_test_dup", time.Now()))
	require.NoError(t, err)

	rows, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestListByUserNewestFirstAndScoped(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	otherUser := uuid.New()
	sellerID := uuid.New()

	old, err := repo.Create(ctx, testOrder(userID, sellerID, "cs_old", time.Now().Add(-time.Hour)))
	require.NoError(t, err)
	recent, err := repo.Create(ctx, testOrder(userID, sellerID, "cs_new", time.Now()))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testOrder(otherUser, sellerID, "cs_other", time.Now()))
	require.NoError(t, err)

	rows, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, recent.ID, rows[0].ID)
	assert.Equal(t, old.ID, rows[1].ID)
}

func TestListContainingSellerMatchesItemSeller(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sellerID := uuid.New()
	otherSeller := uuid.New()

	mine, err := repo.Create(ctx, testOrder(uuid.New(), sellerID, "cs_mine", time.Now()))
	require.NoError(t, err)
	_, err = repo.Create(ctx, testOrder(uuid.New(), otherSeller, "cs_theirs", time.Now()))
	require.NoError(t, err)

	rows, err := repo.ListContainingSeller(ctx, sellerID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mine.ID, rows[0].ID)

	none, err := repo.ListContainingSeller(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
