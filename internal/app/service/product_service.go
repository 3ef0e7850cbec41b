package service

import (
	"errors"

	"github.com/lib/pq"
	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrNotProductOwner   = errors.New("product belongs to another seller")
	ErrInvalidPrice      = errors.New("price must be greater than zero")
	ErrInvalidStock      = errors.New("stock quantity cannot be negative")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type CreateProductInput struct {
	Name          string
	Description   string
	Price         float64
	Category      string
	Images        []string
	StockQuantity int
}

// UpdateProductInput uses pointers so callers can patch a subset of fields.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *float64
	Category      *string
	Images        []string
	StockQuantity *int
	IsActive      *bool
}

type ProductService interface {
	CreateProduct(sellerID uint, input CreateProductInput) (*model.Product, error)
	GetProducts(filter repository.ProductFilter) ([]model.Product, int64, error)
	GetProductByID(id uint) (*model.Product, error)
	GetSellerProducts(sellerID uint) ([]model.Product, error)
	ListCategories() ([]string, error)
	UpdateProduct(sellerID, productID uint, input UpdateProductInput) (*model.Product, error)
	DeleteProduct(sellerID, productID uint) error
}

type productService struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) CreateProduct(sellerID uint, input CreateProductInput) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"seller_id": sellerID,
		"name":      input.Name,
		"category":  input.Category,
	})

	if input.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if input.StockQuantity < 0 {
		return nil, ErrInvalidStock
	}

	product := &model.Product{
		SellerID:      sellerID,
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		Category:      input.Category,
		Images:        pq.StringArray(input.Images),
		StockQuantity: input.StockQuantity,
		IsActive:      true,
	}

	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"seller_id": sellerID,
			"name":      input.Name,
		})
		return nil, err
	}

	logger.Info("Product created successfully", map[string]interface{}{
		"product_id": product.ID,
		"seller_id":  sellerID,
	})
	return product, nil
}

func (s *productService) GetProducts(filter repository.ProductFilter) ([]model.Product, int64, error) {
	filter.OnlyActive = true
	return s.productRepo.FindWithFilter(filter)
}

func (s *productService) GetProductByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) GetSellerProducts(sellerID uint) ([]model.Product, error) {
	return s.productRepo.FindBySellerID(sellerID)
}

func (s *productService) ListCategories() ([]string, error) {
	return s.productRepo.ListCategories()
}

func (s *productService) UpdateProduct(sellerID, productID uint, input UpdateProductInput) (*model.Product, error) {
	logger.Info("Updating product", map[string]interface{}{
		"seller_id":  sellerID,
		"product_id": productID,
	})

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if product.SellerID != sellerID {
		logger.Warn("Product update rejected: not the owner", map[string]interface{}{
			"seller_id":  sellerID,
			"product_id": productID,
			"owner_id":   product.SellerID,
		})
		return nil, ErrNotProductOwner
	}

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			return nil, ErrInvalidPrice
		}
		product.Price = *input.Price
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Images != nil {
		product.Images = pq.StringArray(input.Images)
	}
	if input.StockQuantity != nil {
		if *input.StockQuantity < 0 {
			return nil, ErrInvalidStock
		}
		product.StockQuantity = *input.StockQuantity
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	return product, nil
}

func (s *productService) DeleteProduct(sellerID, productID uint) error {
	logger.Info("Deleting product", map[string]interface{}{
		"seller_id":  sellerID,
		"product_id": productID,
	})

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	if product.SellerID != sellerID {
		return ErrNotProductOwner
	}

	// Soft delete keeps order item FKs intact; snapshots on order lines
	// already carry the display data.
	return s.productRepo.Delete(productID)
}
