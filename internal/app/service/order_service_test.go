package service

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type orderTestEnv struct {
	db           *gorm.DB
	orderService OrderService
	cartService  CartService
	cartRepo     repository.CartRepository
	buyer        *model.User
	seller       *model.User
	address      *model.Address
}

func setupOrderServiceTest(t *testing.T) *orderTestEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	orderRepo := repository.NewOrderRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	addressRepo := repository.NewAddressRepository(testDB)
	favoriteRepo := repository.NewFavoriteRepository(testDB)

	buyer := &model.User{Email: "buyer@example.com", PasswordHash: "hash", FullName: "Asha Buyer", Role: model.RoleBuyer}
	testDB.Create(buyer)

	seller := &model.User{Email: "seller@example.com", PasswordHash: "hash", FullName: "Ravi Seller", Role: model.RoleSeller}
	testDB.Create(seller)

	address := &model.Address{
		UserID:       buyer.ID,
		FullName:     "Asha Buyer",
		Phone:        "9876543210",
		AddressLine1: "12 MG Road",
		AddressLine2: "Near Clock Tower",
		City:         "Jaipur",
		State:        "Rajasthan",
		PinCode:      "302001",
		IsDefault:    true,
	}
	testDB.Create(address)

	return &orderTestEnv{
		db:           testDB,
		orderService: NewOrderService(orderRepo, cartRepo, productRepo, addressRepo, testDB),
		cartService:  NewCartService(cartRepo, productRepo, favoriteRepo),
		cartRepo:     cartRepo,
		buyer:        buyer,
		seller:       seller,
		address:      address,
	}
}

func (e *orderTestEnv) createProduct(t *testing.T, name string, price float64, stock int) *model.Product {
	product := &model.Product{
		SellerID:      e.seller.ID,
		Name:          name,
		Description:   "Handcrafted " + name,
		Price:         price,
		Category:      "pottery",
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func (e *orderTestEnv) stockOf(t *testing.T, productID uint) int {
	var product model.Product
	require.NoError(t, e.db.First(&product, productID).Error)
	return product.StockQuantity
}

func TestPlaceOrder_Success(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	vase := env.createProduct(t, "Blue Pottery Vase", 1200, 5)
	diya := env.createProduct(t, "Brass Diya", 100, 10)

	_, err := env.cartService.AddToCart(env.buyer.ID, vase.ID, 1)
	require.NoError(t, err)
	_, err = env.cartService.AddToCart(env.buyer.ID, diya.ID, 2)
	require.NoError(t, err)

	order, err := env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
		Notes:         "Ring the bell twice",
	})
	require.NoError(t, err)

	// Header
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
	assert.Equal(t, model.PaymentStatusPending, order.PaymentStatus)
	assert.Regexp(t, `^KB\d{6}[0-9A-Z]{3}$`, order.OrderNumber)

	// Totals: 1200 + 200 = 1400 subtotal, below threshold, flat shipping
	assert.Equal(t, 1500.0, order.TotalAmount)

	// Line snapshots
	require.Len(t, order.OrderItems, 2)
	var lineSum float64
	for _, item := range order.OrderItems {
		assert.Equal(t, env.seller.ID, item.SellerID)
		assert.NotEmpty(t, item.ProductName)
		assert.Equal(t, item.UnitPrice*float64(item.Quantity), item.TotalPrice)
		lineSum += item.TotalPrice
	}
	assert.Equal(t, order.TotalAmount, lineSum+FlatShippingRate)

	// Address snapshot
	assert.Equal(t, "Asha Buyer", order.ShippingFullName)
	assert.Equal(t, "12 MG Road", order.ShippingAddressLine1)
	assert.Equal(t, "302001", order.ShippingPinCode)

	// Stock decremented
	assert.Equal(t, 4, env.stockOf(t, vase.ID))
	assert.Equal(t, 8, env.stockOf(t, diya.ID))

	// Cart cleared
	items, err := env.cartRepo.FindByUserID(env.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPlaceOrder_FreeShippingAboveThreshold(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	painting := env.createProduct(t, "Madhubani Painting", 2500, 3)
	_, err := env.cartService.AddToCart(env.buyer.ID, painting.ID, 1)
	require.NoError(t, err)

	order, err := env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, 2500.0, order.TotalAmount)
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	_, err := env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	vase := env.createProduct(t, "Blue Pottery Vase", 1200, 5)
	diya := env.createProduct(t, "Brass Diya", 100, 10)

	_, err := env.cartService.AddToCart(env.buyer.ID, diya.ID, 3)
	require.NoError(t, err)
	_, err = env.cartService.AddToCart(env.buyer.ID, vase.ID, 4)
	require.NoError(t, err)

	// Stock drops after the items were carted
	require.NoError(t, env.db.Model(&model.Product{}).
		Where("id = ?", vase.ID).
		Update("stock_quantity", 2).Error)

	_, err = env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Nothing committed: earlier line's decrement rolled back, cart intact,
	// no order rows
	assert.Equal(t, 10, env.stockOf(t, diya.ID))
	assert.Equal(t, 2, env.stockOf(t, vase.ID))

	items, err := env.cartRepo.FindByUserID(env.buyer.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	var orderCount int64
	env.db.Model(&model.Order{}).Count(&orderCount)
	assert.Zero(t, orderCount)
}

func TestPlaceOrder_UnavailableLinesStayInCart(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	vase := env.createProduct(t, "Blue Pottery Vase", 1200, 5)
	lamp := env.createProduct(t, "Retired Lamp", 900, 5)

	_, err := env.cartService.AddToCart(env.buyer.ID, vase.ID, 1)
	require.NoError(t, err)
	_, err = env.cartService.AddToCart(env.buyer.ID, lamp.ID, 1)
	require.NoError(t, err)

	// Lamp is deactivated after being carted
	require.NoError(t, env.db.Model(&model.Product{}).
		Where("id = ?", lamp.ID).
		Update("is_active", false).Error)

	order, err := env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 1)
	assert.Equal(t, "Blue Pottery Vase", order.OrderItems[0].ProductName)

	// The unavailable line is still in the cart
	items, err := env.cartRepo.FindByUserID(env.buyer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, lamp.ID, items[0].ProductID)
}

func TestPlaceOrder_AllLinesUnavailable(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	lamp := env.createProduct(t, "Retired Lamp", 900, 5)
	_, err := env.cartService.AddToCart(env.buyer.ID, lamp.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.Product{}).
		Where("id = ?", lamp.ID).
		Update("stock_quantity", 0).Error)

	_, err = env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrder_LastUnitGoesToOneBuyer(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	rare := env.createProduct(t, "One of a Kind Sculpture", 1800, 1)

	second := &model.User{Email: "second@example.com", PasswordHash: "hash", FullName: "Second Buyer", Role: model.RoleBuyer}
	env.db.Create(second)
	secondAddr := &model.Address{
		UserID: second.ID, FullName: "Second Buyer", Phone: "9000000000",
		AddressLine1: "5 Park Street", City: "Kolkata", State: "West Bengal", PinCode: "700016",
	}
	env.db.Create(secondAddr)

	// Both buyers cart the last unit before either checks out
	_, err := env.cartService.AddToCart(env.buyer.ID, rare.ID, 1)
	require.NoError(t, err)
	_, err = env.cartService.AddToCart(second.ID, rare.ID, 1)
	require.NoError(t, err)

	_, err = env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, err)

	_, err = env.orderService.PlaceOrder(second.ID, PlaceOrderInput{
		AddressID:     secondAddr.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.ErrorIs(t, err, ErrEmptyCart) // line went unavailable at stock 0

	assert.Equal(t, 0, env.stockOf(t, rare.ID))
}

func TestPlaceOrder_ConcurrentCheckoutsExactlyOneCommits(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	// The in-memory sqlite DB exists per connection, so pin the pool to one.
	// The guarded stock update still decides which checkout wins.
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	rare := env.createProduct(t, "One of a Kind Sculpture", 1800, 1)

	second := &model.User{Email: "second@example.com", PasswordHash: "hash", FullName: "Second Buyer", Role: model.RoleBuyer}
	env.db.Create(second)
	secondAddr := &model.Address{
		UserID: second.ID, FullName: "Second Buyer", Phone: "9000000000",
		AddressLine1: "5 Park Street", City: "Kolkata", State: "West Bengal", PinCode: "700016",
	}
	env.db.Create(secondAddr)

	_, err = env.cartService.AddToCart(env.buyer.ID, rare.ID, 1)
	require.NoError(t, err)
	_, err = env.cartService.AddToCart(second.ID, rare.ID, 1)
	require.NoError(t, err)

	checkouts := []struct {
		userID    uint
		addressID uint
	}{
		{env.buyer.ID, env.address.ID},
		{second.ID, secondAddr.ID},
	}

	results := make([]error, len(checkouts))
	var wg sync.WaitGroup
	for i, co := range checkouts {
		wg.Add(1)
		go func(i int, userID, addressID uint) {
			defer wg.Done()
			_, results[i] = env.orderService.PlaceOrder(userID, PlaceOrderInput{
				AddressID:     addressID,
				PaymentMethod: model.PaymentMethodCOD,
			})
		}(i, co.userID, co.addressID)
	}
	wg.Wait()

	var succeeded, failed int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		failed++
		// The loser sees the line as gone at validation or at decrement,
		// depending on when the winner committed
		if !errors.Is(err, ErrEmptyCart) && !errors.Is(err, ErrInsufficientStock) {
			t.Fatalf("unexpected checkout error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	assert.Equal(t, 0, env.stockOf(t, rare.ID))

	var orderCount int64
	env.db.Model(&model.Order{}).Count(&orderCount)
	assert.Equal(t, int64(1), orderCount)
}

func TestPlaceOrder_OtherUsersAddressRejected(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	vase := env.createProduct(t, "Blue Pottery Vase", 1200, 5)
	_, err := env.cartService.AddToCart(env.buyer.ID, vase.ID, 1)
	require.NoError(t, err)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", FullName: "Other", Role: model.RoleBuyer}
	env.db.Create(other)
	otherAddr := &model.Address{UserID: other.ID, FullName: "Other", Phone: "9", AddressLine1: "X", City: "Y", State: "Z", PinCode: "1"}
	env.db.Create(otherAddr)

	_, err = env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     otherAddr.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	assert.ErrorIs(t, err, ErrAddressNotFound)
}

func TestPlaceOrder_OnlinePaymentNotWired(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	vase := env.createProduct(t, "Blue Pottery Vase", 1200, 5)
	_, err := env.cartService.AddToCart(env.buyer.ID, vase.ID, 1)
	require.NoError(t, err)

	_, err = env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodOnline,
	})
	assert.ErrorIs(t, err, ErrPaymentUnavailable)
}

func TestOrderSnapshotsSurviveSourceEdits(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	vase := env.createProduct(t, "Blue Pottery Vase", 1200, 5)
	_, err := env.cartService.AddToCart(env.buyer.ID, vase.ID, 1)
	require.NoError(t, err)

	order, err := env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, err)

	// Mutate the sources after commit
	require.NoError(t, env.db.Model(&model.Product{}).
		Where("id = ?", vase.ID).
		Updates(map[string]interface{}{"name": "Renamed Vase", "price": 9999}).Error)
	require.NoError(t, env.db.Delete(&model.Address{}, env.address.ID).Error)

	reloaded, err := env.orderService.GetOrderByID(env.buyer.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.OrderItems, 1)
	assert.Equal(t, "Blue Pottery Vase", reloaded.OrderItems[0].ProductName)
	assert.Equal(t, 1200.0, reloaded.OrderItems[0].UnitPrice)
	assert.Equal(t, "12 MG Road", reloaded.ShippingAddressLine1)
}

func TestGetOrderByID_Ownership(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	vase := env.createProduct(t, "Blue Pottery Vase", 1200, 5)
	_, err := env.cartService.AddToCart(env.buyer.ID, vase.ID, 1)
	require.NoError(t, err)

	order, err := env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
		AddressID:     env.address.ID,
		PaymentMethod: model.PaymentMethodCOD,
	})
	require.NoError(t, err)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", FullName: "Other", Role: model.RoleBuyer}
	env.db.Create(other)

	_, err = env.orderService.GetOrderByID(other.ID, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCancelOrder(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	placeOrder := func(t *testing.T) (*model.Order, *model.Product) {
		vase := env.createProduct(t, "Blue Pottery Vase", 1200, 5)
		_, err := env.cartService.AddToCart(env.buyer.ID, vase.ID, 2)
		require.NoError(t, err)
		order, err := env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
			AddressID:     env.address.ID,
			PaymentMethod: model.PaymentMethodCOD,
		})
		require.NoError(t, err)
		return order, vase
	}

	t.Run("cancel restocks and marks cancelled", func(t *testing.T) {
		order, vase := placeOrder(t)
		assert.Equal(t, 3, env.stockOf(t, vase.ID))

		cancelled, err := env.orderService.CancelOrder(env.buyer.ID, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
		assert.Equal(t, 5, env.stockOf(t, vase.ID))
	})

	t.Run("cancel twice fails", func(t *testing.T) {
		order, _ := placeOrder(t)
		_, err := env.orderService.CancelOrder(env.buyer.ID, order.ID)
		require.NoError(t, err)

		_, err = env.orderService.CancelOrder(env.buyer.ID, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotCancellable)
	})

	t.Run("shipped order cannot be cancelled", func(t *testing.T) {
		order, vase := placeOrder(t)
		require.NoError(t, env.db.Model(&model.Order{}).
			Where("id = ?", order.ID).
			Update("status", model.OrderStatusShipped).Error)

		_, err := env.orderService.CancelOrder(env.buyer.ID, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotCancellable)
		assert.Equal(t, 3, env.stockOf(t, vase.ID))
	})

	t.Run("window expired", func(t *testing.T) {
		order, _ := placeOrder(t)
		require.NoError(t, env.db.Model(&model.Order{}).
			Where("id = ?", order.ID).
			Update("created_at", time.Now().Add(-25*time.Hour)).Error)

		_, err := env.orderService.CancelOrder(env.buyer.ID, order.ID)
		assert.ErrorIs(t, err, ErrCancelWindowExpired)
	})

	t.Run("other buyer cannot cancel", func(t *testing.T) {
		order, _ := placeOrder(t)
		other := &model.User{Email: "cancel-other@example.com", PasswordHash: "hash", FullName: "Other", Role: model.RoleBuyer}
		env.db.Create(other)

		_, err := env.orderService.CancelOrder(other.ID, order.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestOrderNumbersAreUniqueAcrossOrders(t *testing.T) {
	env := setupOrderServiceTest(t)
	defer db.CleanupTestDB(env.db)

	diya := env.createProduct(t, "Brass Diya", 100, 100)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		_, err := env.cartService.AddToCart(env.buyer.ID, diya.ID, 1)
		require.NoError(t, err)

		order, err := env.orderService.PlaceOrder(env.buyer.ID, PlaceOrderInput{
			AddressID:     env.address.ID,
			PaymentMethod: model.PaymentMethodCOD,
		})
		require.NoError(t, err)
		assert.False(t, seen[order.OrderNumber], "duplicate order number %s", order.OrderNumber)
		seen[order.OrderNumber] = true
	}
}
