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

func setupProductServiceTest(t *testing.T) (*gorm.DB, ProductService, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	seller := &model.User{Email: "seller@example.com", PasswordHash: "hash", FullName: "Seller", Role: model.RoleSeller}
	testDB.Create(seller)

	return testDB, NewProductService(repository.NewProductRepository(testDB)), seller
}

func TestCreateProduct(t *testing.T) {
	testDB, svc, seller := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	t.Run("success", func(t *testing.T) {
		product, err := svc.CreateProduct(seller.ID, CreateProductInput{
			Name:          "Warli Art Print",
			Description:   "Traditional Warli painting print",
			Price:         650,
			Category:      "paintings",
			Images:        []string{"https://example.com/warli.jpg"},
			StockQuantity: 12,
		})
		require.NoError(t, err)
		assert.NotZero(t, product.ID)
		assert.True(t, product.IsActive)
		assert.Equal(t, seller.ID, product.SellerID)
	})

	t.Run("invalid price", func(t *testing.T) {
		_, err := svc.CreateProduct(seller.ID, CreateProductInput{Name: "Freebie", Price: 0, Category: "misc"})
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})

	t.Run("negative stock", func(t *testing.T) {
		_, err := svc.CreateProduct(seller.ID, CreateProductInput{Name: "Ghost", Price: 10, Category: "misc", StockQuantity: -1})
		assert.ErrorIs(t, err, ErrInvalidStock)
	})
}

func TestUpdateProduct_Ownership(t *testing.T) {
	testDB, svc, seller := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	product, err := svc.CreateProduct(seller.ID, CreateProductInput{
		Name: "Warli Art Print", Price: 650, Category: "paintings", StockQuantity: 12,
	})
	require.NoError(t, err)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", FullName: "Other", Role: model.RoleSeller}
	testDB.Create(other)

	newPrice := 700.0
	_, err = svc.UpdateProduct(other.ID, product.ID, UpdateProductInput{Price: &newPrice})
	assert.ErrorIs(t, err, ErrNotProductOwner)

	updated, err := svc.UpdateProduct(seller.ID, product.ID, UpdateProductInput{Price: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 700.0, updated.Price)
}

func TestUpdateProduct_Deactivate(t *testing.T) {
	testDB, svc, seller := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	product, err := svc.CreateProduct(seller.ID, CreateProductInput{
		Name: "Seasonal Item", Price: 200, Category: "misc", StockQuantity: 4,
	})
	require.NoError(t, err)

	inactive := false
	_, err = svc.UpdateProduct(seller.ID, product.ID, UpdateProductInput{IsActive: &inactive})
	require.NoError(t, err)

	// Deactivated products drop out of the public catalog
	products, _, err := svc.GetProducts(repository.ProductFilter{})
	require.NoError(t, err)
	assert.Empty(t, products)

	// But the seller still sees them
	mine, err := svc.GetSellerProducts(seller.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestDeleteProduct(t *testing.T) {
	testDB, svc, seller := setupProductServiceTest(t)
	defer db.CleanupTestDB(testDB)

	product, err := svc.CreateProduct(seller.ID, CreateProductInput{
		Name: "Short Lived", Price: 200, Category: "misc", StockQuantity: 4,
	})
	require.NoError(t, err)

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", FullName: "Other", Role: model.RoleSeller}
	testDB.Create(other)

	err = svc.DeleteProduct(other.ID, product.ID)
	assert.ErrorIs(t, err, ErrNotProductOwner)

	require.NoError(t, svc.DeleteProduct(seller.ID, product.ID))

	_, err = svc.GetProductByID(product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
