package service

import (
	"errors"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCartItemNotFound   = errors.New("cart item not found")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrProductUnavailable = errors.New("product is not available for purchase")
)

// CartView partitions the cart so clients can render orderable lines apart
// from lines whose product went inactive or out of stock since being added.
// Totals cover the available partition only.
type CartView struct {
	Available   []model.CartItem `json:"available"`
	Unavailable []model.CartItem `json:"unavailable"`
	Totals      Totals           `json:"totals"`
}

type CartService interface {
	AddToCart(userID, productID uint, quantity int) (*model.CartItem, error)
	GetUserCart(userID uint) (*CartView, error)
	UpdateCartItem(userID, cartItemID uint, quantity int) (*model.CartItem, error)
	RemoveFromCart(userID, cartItemID uint) error
	ClearCart(userID uint) error
	MoveToFavorites(userID, cartItemID uint) error
}

type cartService struct {
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	favoriteRepo repository.FavoriteRepository
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	favoriteRepo repository.FavoriteRepository,
) CartService {
	return &cartService{
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		favoriteRepo: favoriteRepo,
	}
}

// AddToCart inserts a line or merges into an existing line for the same
// product. Stock is only advisory here, the binding check happens at
// checkout.
func (s *cartService) AddToCart(userID, productID uint, quantity int) (*model.CartItem, error) {
	logger.Info("Adding product to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if !product.Purchasable() {
		logger.Warn("Cannot add unavailable product to cart", map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
			"is_active":  product.IsActive,
			"stock":      product.StockQuantity,
		})
		return nil, ErrProductUnavailable
	}

	existing, err := s.cartRepo.FindByUserAndProduct(userID, productID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if existing != nil && err == nil {
		requested := existing.Quantity + quantity
		if requested > product.StockQuantity {
			logger.Warn("Cart merge exceeds available stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": productID,
				"requested":  requested,
				"available":  product.StockQuantity,
			})
			return nil, ErrInsufficientStock
		}
		existing.Quantity = requested
		if err := s.cartRepo.Update(existing); err != nil {
			return nil, err
		}
		return s.cartRepo.FindByID(existing.ID)
	}

	if quantity > product.StockQuantity {
		return nil, ErrInsufficientStock
	}

	cartItem := &model.CartItem{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := s.cartRepo.Create(cartItem); err != nil {
		return nil, err
	}

	logger.Info("Product added to cart", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItem.ID,
	})
	return s.cartRepo.FindByID(cartItem.ID)
}

func (s *cartService) GetUserCart(userID uint) (*CartView, error) {
	items, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	view := &CartView{
		Available:   []model.CartItem{},
		Unavailable: []model.CartItem{},
	}
	for _, item := range items {
		if item.Purchasable() {
			view.Available = append(view.Available, item)
		} else {
			view.Unavailable = append(view.Unavailable, item)
		}
	}
	view.Totals = ComputeCartTotals(items)

	return view, nil
}

func (s *cartService) UpdateCartItem(userID, cartItemID uint, quantity int) (*model.CartItem, error) {
	logger.Info("Updating cart item quantity", map[string]interface{}{
		"user_id":      userID,
		"cart_item_id": cartItemID,
		"quantity":     quantity,
	})

	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	item, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}

	if item.UserID != userID {
		return nil, ErrCartItemNotFound
	}

	if quantity > item.Product.StockQuantity {
		return nil, ErrInsufficientStock
	}

	item.Quantity = quantity
	if err := s.cartRepo.Update(item); err != nil {
		return nil, err
	}

	return s.cartRepo.FindByID(item.ID)
}

func (s *cartService) RemoveFromCart(userID, cartItemID uint) error {
	item, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}

	if item.UserID != userID {
		return ErrCartItemNotFound
	}

	return s.cartRepo.Delete(cartItemID)
}

// ClearCart empties the cart. Clearing an already empty cart succeeds.
func (s *cartService) ClearCart(userID uint) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"user_id": userID,
	})
	return s.cartRepo.DeleteByUserID(userID)
}

// MoveToFavorites removes a cart line and saves its product as a favorite.
// An existing favorite for the same product is kept as is.
func (s *cartService) MoveToFavorites(userID, cartItemID uint) error {
	item, err := s.cartRepo.FindByID(cartItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCartItemNotFound
		}
		return err
	}

	if item.UserID != userID {
		return ErrCartItemNotFound
	}

	_, err = s.favoriteRepo.FindByUserAndProduct(userID, item.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		favorite := &model.Favorite{
			UserID:    userID,
			ProductID: item.ProductID,
		}
		if err := s.favoriteRepo.Create(favorite); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return s.cartRepo.Delete(cartItemID)
}
