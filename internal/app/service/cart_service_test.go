package service

import (
	"testing"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type cartTestEnv struct {
	db           *gorm.DB
	cartService  CartService
	favoriteRepo repository.FavoriteRepository
	buyer        *model.User
	seller       *model.User
}

func setupCartServiceTest(t *testing.T) *cartTestEnv {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	cartRepo := repository.NewCartRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	favoriteRepo := repository.NewFavoriteRepository(testDB)

	buyer := &model.User{Email: "buyer@example.com", PasswordHash: "hash", FullName: "Buyer", Role: model.RoleBuyer}
	testDB.Create(buyer)

	seller := &model.User{Email: "seller@example.com", PasswordHash: "hash", FullName: "Seller", Role: model.RoleSeller}
	testDB.Create(seller)

	return &cartTestEnv{
		db:           testDB,
		cartService:  NewCartService(cartRepo, productRepo, favoriteRepo),
		favoriteRepo: favoriteRepo,
		buyer:        buyer,
		seller:       seller,
	}
}

func (e *cartTestEnv) createProduct(t *testing.T, name string, price float64, stock int, active bool) *model.Product {
	product := &model.Product{
		SellerID:      e.seller.ID,
		Name:          name,
		Price:         price,
		Category:      "textiles",
		StockQuantity: stock,
		IsActive:      active,
	}
	require.NoError(t, e.db.Create(product).Error)
	return product
}

func TestAddToCart_MergesExistingLine(t *testing.T) {
	env := setupCartServiceTest(t)
	defer db.CleanupTestDB(env.db)

	scarf := env.createProduct(t, "Silk Scarf", 800, 10, true)

	first, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 2)
	require.NoError(t, err)

	second, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	var count int64
	env.db.Model(&model.CartItem{}).Where("user_id = ?", env.buyer.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAddToCart_Validation(t *testing.T) {
	env := setupCartServiceTest(t)
	defer db.CleanupTestDB(env.db)

	scarf := env.createProduct(t, "Silk Scarf", 800, 3, true)
	inactive := env.createProduct(t, "Hidden Item", 500, 5, false)

	t.Run("zero quantity", func(t *testing.T) {
		_, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := env.cartService.AddToCart(env.buyer.ID, 99999, 1)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("inactive product", func(t *testing.T) {
		_, err := env.cartService.AddToCart(env.buyer.ID, inactive.ID, 1)
		assert.ErrorIs(t, err, ErrProductUnavailable)
	})

	t.Run("quantity above stock", func(t *testing.T) {
		_, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 4)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("merge above stock", func(t *testing.T) {
		_, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 2)
		require.NoError(t, err)
		_, err = env.cartService.AddToCart(env.buyer.ID, scarf.ID, 2)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})
}

func TestGetUserCart_Partitions(t *testing.T) {
	env := setupCartServiceTest(t)
	defer db.CleanupTestDB(env.db)

	scarf := env.createProduct(t, "Silk Scarf", 800, 10, true)
	lamp := env.createProduct(t, "Clay Lamp", 300, 5, true)

	_, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 2)
	require.NoError(t, err)
	_, err = env.cartService.AddToCart(env.buyer.ID, lamp.ID, 1)
	require.NoError(t, err)

	// Lamp sells out after being carted
	require.NoError(t, env.db.Model(&model.Product{}).
		Where("id = ?", lamp.ID).
		Update("stock_quantity", 0).Error)

	view, err := env.cartService.GetUserCart(env.buyer.ID)
	require.NoError(t, err)

	require.Len(t, view.Available, 1)
	require.Len(t, view.Unavailable, 1)
	assert.Equal(t, scarf.ID, view.Available[0].ProductID)
	assert.Equal(t, lamp.ID, view.Unavailable[0].ProductID)

	// Totals cover the available line only: 1600 + 100 shipping
	assert.Equal(t, 1600.0, view.Totals.Subtotal)
	assert.Equal(t, 1700.0, view.Totals.Total)
}

func TestUpdateCartItem(t *testing.T) {
	env := setupCartServiceTest(t)
	defer db.CleanupTestDB(env.db)

	scarf := env.createProduct(t, "Silk Scarf", 800, 5, true)
	item, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 1)
	require.NoError(t, err)

	t.Run("update quantity", func(t *testing.T) {
		updated, err := env.cartService.UpdateCartItem(env.buyer.ID, item.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 3, updated.Quantity)
	})

	t.Run("quantity below one", func(t *testing.T) {
		_, err := env.cartService.UpdateCartItem(env.buyer.ID, item.ID, 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("quantity above stock", func(t *testing.T) {
		_, err := env.cartService.UpdateCartItem(env.buyer.ID, item.ID, 6)
		assert.ErrorIs(t, err, ErrInsufficientStock)
	})

	t.Run("other user's line is invisible", func(t *testing.T) {
		other := &model.User{Email: "other@example.com", PasswordHash: "hash", FullName: "Other", Role: model.RoleBuyer}
		env.db.Create(other)

		_, err := env.cartService.UpdateCartItem(other.ID, item.ID, 2)
		assert.ErrorIs(t, err, ErrCartItemNotFound)
	})
}

func TestClearCart_Idempotent(t *testing.T) {
	env := setupCartServiceTest(t)
	defer db.CleanupTestDB(env.db)

	scarf := env.createProduct(t, "Silk Scarf", 800, 5, true)
	_, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.cartService.ClearCart(env.buyer.ID))
	require.NoError(t, env.cartService.ClearCart(env.buyer.ID))

	view, err := env.cartService.GetUserCart(env.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Available)
	assert.Empty(t, view.Unavailable)
	assert.Equal(t, Totals{}, view.Totals)
}

func TestMoveToFavorites(t *testing.T) {
	env := setupCartServiceTest(t)
	defer db.CleanupTestDB(env.db)

	scarf := env.createProduct(t, "Silk Scarf", 800, 5, true)
	item, err := env.cartService.AddToCart(env.buyer.ID, scarf.ID, 1)
	require.NoError(t, err)

	require.NoError(t, env.cartService.MoveToFavorites(env.buyer.ID, item.ID))

	// Line gone from the cart, product favorited
	view, err := env.cartService.GetUserCart(env.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Available)

	_, err = env.favoriteRepo.FindByUserAndProduct(env.buyer.ID, scarf.ID)
	assert.NoError(t, err)
}
