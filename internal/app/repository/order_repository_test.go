package repository

import (
	"testing"
	"time"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderTest(t *testing.T) (*gorm.DB, OrderRepository, *model.User, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewOrderRepository(testDB)

	buyer := &model.User{Email: "buyer@example.com", PasswordHash: "hash", FullName: "Buyer", Role: model.RoleBuyer}
	testDB.Create(buyer)

	seller := &model.User{Email: "seller@example.com", PasswordHash: "hash", FullName: "Seller", Role: model.RoleSeller}
	testDB.Create(seller)

	return testDB, repo, buyer, seller
}

func createTestOrder(t *testing.T, testDB *gorm.DB, buyer *model.User, seller *model.User, orderNumber string, status model.OrderStatus) *model.Order {
	order := &model.Order{
		UserID:               buyer.ID,
		OrderNumber:          orderNumber,
		TotalAmount:          1300,
		Status:               status,
		PaymentMethod:        model.PaymentMethodCOD,
		PaymentStatus:        model.PaymentStatusPending,
		ShippingFullName:     "Buyer",
		ShippingPhone:        "9876543210",
		ShippingAddressLine1: "12 MG Road",
		ShippingCity:         "Jaipur",
		ShippingState:        "Rajasthan",
		ShippingPinCode:      "302001",
		OrderItems: []model.OrderItem{
			{
				ProductID:   1,
				SellerID:    seller.ID,
				Quantity:    1,
				UnitPrice:   1200,
				TotalPrice:  1200,
				ProductName: "Blue Pottery Vase",
			},
		},
	}
	require.NoError(t, testDB.Create(order).Error)
	return order
}

func TestOrderRepository_FindByID(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	order := createTestOrder(t, testDB, buyer, seller, "KB123456ABC", model.OrderStatusProcessing)

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "KB123456ABC", found.OrderNumber)
	require.Len(t, found.OrderItems, 1)
	assert.Equal(t, "Blue Pottery Vase", found.OrderItems[0].ProductName)
}

func TestOrderRepository_FindByOrderNumber(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	createTestOrder(t, testDB, buyer, seller, "KB123456ABC", model.OrderStatusProcessing)

	found, err := repo.FindByOrderNumber("KB123456ABC")
	require.NoError(t, err)
	assert.Equal(t, buyer.ID, found.UserID)

	_, err = repo.FindByOrderNumber("KB000000XXX")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepository_OrderNumberUnique(t *testing.T) {
	testDB, _, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	createTestOrder(t, testDB, buyer, seller, "KB123456ABC", model.OrderStatusProcessing)

	dup := &model.Order{
		UserID:      buyer.ID,
		OrderNumber: "KB123456ABC",
		TotalAmount: 500,
		Status:      model.OrderStatusProcessing,
	}
	err := testDB.Create(dup).Error
	assert.Error(t, err)
}

func TestOrderRepository_FindByUserID(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	createTestOrder(t, testDB, buyer, seller, "KB111111AAA", model.OrderStatusProcessing)
	createTestOrder(t, testDB, buyer, seller, "KB222222BBB", model.OrderStatusDelivered)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", FullName: "Other", Role: model.RoleBuyer}
	testDB.Create(other)
	createTestOrder(t, testDB, other, seller, "KB333333CCC", model.OrderStatusProcessing)

	orders, err := repo.FindByUserID(buyer.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}

func TestOrderRepository_FindBySellerID(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	otherSeller := &model.User{Email: "other-seller@example.com", PasswordHash: "hash", FullName: "Other Seller", Role: model.RoleSeller}
	testDB.Create(otherSeller)

	createTestOrder(t, testDB, buyer, seller, "KB111111AAA", model.OrderStatusProcessing)
	createTestOrder(t, testDB, buyer, seller, "KB222222BBB", model.OrderStatusShipped)
	createTestOrder(t, testDB, buyer, otherSeller, "KB333333CCC", model.OrderStatusProcessing)

	t.Run("all statuses", func(t *testing.T) {
		orders, err := repo.FindBySellerID(seller.ID, "")
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("filtered by status", func(t *testing.T) {
		orders, err := repo.FindBySellerID(seller.ID, string(model.OrderStatusShipped))
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "KB222222BBB", orders[0].OrderNumber)
	})

	t.Run("seller with no orders", func(t *testing.T) {
		stranger := &model.User{Email: "stranger@example.com", PasswordHash: "hash", FullName: "Stranger", Role: model.RoleSeller}
		testDB.Create(stranger)

		orders, err := repo.FindBySellerID(stranger.ID, "")
		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestOrderRepository_ContainsSeller(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	order := createTestOrder(t, testDB, buyer, seller, "KB111111AAA", model.OrderStatusProcessing)

	ok, err := repo.ContainsSeller(order.ID, seller.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ContainsSeller(order.ID, 99999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	order := createTestOrder(t, testDB, buyer, seller, "KB111111AAA", model.OrderStatusProcessing)

	updated, err := repo.UpdateStatus(order.ID, model.OrderStatusProcessing, model.OrderStatusShipped)
	require.NoError(t, err)
	assert.True(t, updated)

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, found.Status)
}

func TestOrderRepository_UpdateStatus_StaleStatusLoses(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	order := createTestOrder(t, testDB, buyer, seller, "KB111111AAA", model.OrderStatusProcessing)

	// Buyer cancellation lands after the order was read as processing
	updated, err := repo.UpdateStatus(order.ID, model.OrderStatusProcessing, model.OrderStatusCancelled)
	require.NoError(t, err)
	require.True(t, updated)

	// The stale write guards on processing and must not overwrite the cancel
	updated, err = repo.UpdateStatus(order.ID, model.OrderStatusProcessing, model.OrderStatusShipped)
	require.NoError(t, err)
	assert.False(t, updated)

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, found.Status)
}

func TestOrderRepository_GetSellerStats(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	createTestOrder(t, testDB, buyer, seller, "KB111111AAA", model.OrderStatusProcessing)
	createTestOrder(t, testDB, buyer, seller, "KB222222BBB", model.OrderStatusDelivered)
	createTestOrder(t, testDB, buyer, seller, "KB333333CCC", model.OrderStatusCancelled)

	stats, err := repo.GetSellerStats(seller.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats["total_orders"])
	assert.Equal(t, int64(1), stats["processing_orders"])
	assert.Equal(t, int64(1), stats["delivered_orders"])
	assert.Equal(t, int64(1), stats["cancelled_orders"])
	// Cancelled order lines are excluded from revenue
	assert.Equal(t, float64(2400), stats["total_revenue"])
	assert.Equal(t, int64(2), stats["total_items_sold"])
}

func TestOrderRepository_FindCreatedSince(t *testing.T) {
	testDB, repo, buyer, seller := setupOrderTest(t)
	defer db.CleanupTestDB(testDB)

	createTestOrder(t, testDB, buyer, seller, "KB111111AAA", model.OrderStatusProcessing)

	orders, err := repo.FindCreatedSince(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = repo.FindCreatedSince(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, orders)
}
