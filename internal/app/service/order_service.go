package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/pkg/logger"
	"github.com/martify/martify-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrEmptyCart            = errors.New("cart has no orderable items")
	ErrOrderNotCancellable  = errors.New("order can no longer be cancelled")
	ErrCancelWindowExpired  = errors.New("cancellation window has expired")
	ErrPaymentUnavailable   = errors.New("online payment is not available yet")
	ErrOrderNumberExhausted = errors.New("could not allocate a unique order number")
)

// CancelWindow is how long after placement a buyer may cancel a processing
// order.
const CancelWindow = 24 * time.Hour

const orderNumberAttempts = 5

type PlaceOrderInput struct {
	AddressID     uint
	PaymentMethod model.PaymentMethod
	Notes         string
}

type OrderService interface {
	PlaceOrder(userID uint, input PlaceOrderInput) (*model.Order, error)
	GetUserOrders(userID uint) ([]model.Order, error)
	GetOrderByID(userID, orderID uint) (*model.Order, error)
	CancelOrder(userID, orderID uint) (*model.Order, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	addressRepo repository.AddressRepository
	db          *gorm.DB
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	addressRepo repository.AddressRepository,
	db *gorm.DB,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		db:          db,
	}
}

// PlaceOrder converts the orderable part of the cart into an order. Every
// step runs in one transaction: stock decrements, order row, line snapshots
// and cart cleanup commit together or not at all. Stock is taken with a
// conditional update so two concurrent checkouts can never both consume the
// last unit.
func (s *orderService) PlaceOrder(userID uint, input PlaceOrderInput) (*model.Order, error) {
	logger.Info("Placing order", map[string]interface{}{
		"user_id":        userID,
		"address_id":     input.AddressID,
		"payment_method": input.PaymentMethod,
	})

	switch input.PaymentMethod {
	case model.PaymentMethodCOD:
	case model.PaymentMethodOnline:
		logger.Warn("Online payment requested but no gateway is wired", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrPaymentUnavailable
	default:
		return nil, fmt.Errorf("unknown payment method %q", input.PaymentMethod)
	}

	address, err := s.addressRepo.FindByID(input.AddressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if address.UserID != userID {
		return nil, ErrAddressNotFound
	}

	cartItems, err := s.cartRepo.FindByUserID(userID)
	if err != nil {
		logger.Error("Failed to fetch cart items", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	orderable := make([]model.CartItem, 0, len(cartItems))
	for _, item := range cartItems {
		if item.Purchasable() {
			orderable = append(orderable, item)
		}
	}
	if len(orderable) == 0 {
		logger.Warn("Cannot place order: no orderable cart items", map[string]interface{}{
			"user_id":    userID,
			"cart_lines": len(cartItems),
		})
		return nil, ErrEmptyCart
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("Panic during order placement, rolling back", fmt.Errorf("panic: %v", r), map[string]interface{}{
				"user_id": userID,
			})
		}
	}()

	var (
		subtotal     float64
		orderItems   []model.OrderItem
		orderedLines []uint
	)

	for _, cartItem := range orderable {
		// Re-read inside the transaction; cart preloads may be stale.
		var product model.Product
		if err := tx.First(&product, cartItem.ProductID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Product disappeared during order placement", map[string]interface{}{
					"user_id":    userID,
					"product_id": cartItem.ProductID,
				})
				return nil, ErrProductNotFound
			}
			logger.Error("Failed to fetch product during order placement", err, map[string]interface{}{
				"user_id":    userID,
				"product_id": cartItem.ProductID,
			})
			return nil, err
		}

		// Conditional decrement: succeeds only while the product is active
		// and has enough stock, so stock can never go negative.
		res := tx.Model(&model.Product{}).
			Where("id = ? AND is_active = ? AND stock_quantity >= ?",
				product.ID, true, cartItem.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", cartItem.Quantity))
		if res.Error != nil {
			tx.Rollback()
			logger.Error("Failed to decrement product stock", res.Error, map[string]interface{}{
				"user_id":    userID,
				"product_id": product.ID,
			})
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			tx.Rollback()
			logger.Warn("Order placement failed: insufficient stock", map[string]interface{}{
				"user_id":    userID,
				"product_id": product.ID,
				"requested":  cartItem.Quantity,
				"available":  product.StockQuantity,
			})
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
		}

		linePrice := product.Price * float64(cartItem.Quantity)
		orderItems = append(orderItems, model.OrderItem{
			ProductID:          product.ID,
			SellerID:           product.SellerID,
			Quantity:           cartItem.Quantity,
			UnitPrice:          product.Price,
			TotalPrice:         linePrice,
			ProductName:        product.Name,
			ProductDescription: product.Description,
			ProductImage:       product.FirstImage(),
		})
		subtotal += linePrice
		orderedLines = append(orderedLines, cartItem.ID)
	}

	shipping := ShippingFor(subtotal)

	orderNumber, err := s.allocateOrderNumber(tx)
	if err != nil {
		tx.Rollback()
		logger.Error("Failed to allocate order number", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	order := &model.Order{
		UserID:        userID,
		OrderNumber:   orderNumber,
		Subtotal:      subtotal,
		ShippingFee:   shipping,
		TotalAmount:   subtotal + shipping,
		Status:        model.OrderStatusProcessing,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: model.PaymentStatusPending,
		Notes:         input.Notes,

		ShippingFullName:     address.FullName,
		ShippingPhone:        address.Phone,
		ShippingAddressLine1: address.AddressLine1,
		ShippingAddressLine2: address.AddressLine2,
		ShippingCity:         address.City,
		ShippingState:        address.State,
		ShippingPinCode:      address.PinCode,

		OrderItems: orderItems,
	}

	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to create order", err, map[string]interface{}{
			"user_id":      userID,
			"total_amount": order.TotalAmount,
		})
		return nil, err
	}

	// Only the ordered lines leave the cart; unavailable lines stay for the
	// buyer to resolve.
	if err := tx.Where("id IN ?", orderedLines).Delete(&model.CartItem{}).Error; err != nil {
		tx.Rollback()
		logger.Error("Failed to clear ordered cart lines", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order transaction", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Info("Order placed successfully", map[string]interface{}{
		"user_id":      userID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total_amount": order.TotalAmount,
		"item_count":   len(orderItems),
	})

	return s.orderRepo.FindByID(order.ID)
}

// allocateOrderNumber generates a candidate and retries on collision. The
// unique index on order_number is the final arbiter, this loop just keeps
// collisions from surfacing as 500s.
func (s *orderService) allocateOrderNumber(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		candidate := util.GenerateOrderNumber(time.Now())

		var count int64
		if err := tx.Model(&model.Order{}).
			Where("order_number = ?", candidate).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}

		logger.Warn("Order number collision, retrying", map[string]interface{}{
			"candidate": candidate,
			"attempt":   attempt + 1,
		})
	}
	return "", ErrOrderNumberExhausted
}

func (s *orderService) GetUserOrders(userID uint) ([]model.Order, error) {
	return s.orderRepo.FindByUserID(userID)
}

func (s *orderService) GetOrderByID(userID, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	// Not-found rather than forbidden, order IDs are not public.
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}

	return order, nil
}

// CancelOrder lets the buyer cancel a processing order within the cancel
// window. Stock consumed by the order is returned in the same transaction.
func (s *orderService) CancelOrder(userID, orderID uint) (*model.Order, error) {
	logger.Info("Cancelling order", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	order, err := s.GetOrderByID(userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != model.OrderStatusProcessing {
		logger.Warn("Cancellation rejected: order not processing", map[string]interface{}{
			"order_id": orderID,
			"status":   order.Status,
		})
		return nil, ErrOrderNotCancellable
	}

	if time.Since(order.CreatedAt) > CancelWindow {
		logger.Warn("Cancellation rejected: window expired", map[string]interface{}{
			"order_id":   orderID,
			"created_at": order.CreatedAt,
		})
		return nil, ErrCancelWindowExpired
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Conditional update guards against a status change racing in between
	// the check above and this write.
	res := tx.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, model.OrderStatusProcessing).
		Update("status", model.OrderStatusCancelled)
	if res.Error != nil {
		tx.Rollback()
		logger.Error("Failed to cancel order", res.Error, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, ErrOrderNotCancellable
	}

	// Restock. A product deleted since purchase simply matches no row.
	for _, item := range order.OrderItems {
		if err := tx.Model(&model.Product{}).
			Where("id = ?", item.ProductID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
			tx.Rollback()
			logger.Error("Failed to restock product after cancellation", err, map[string]interface{}{
				"order_id":   orderID,
				"product_id": item.ProductID,
			})
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit order cancellation", err, map[string]interface{}{
			"order_id": orderID,
		})
		return nil, err
	}

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id":     orderID,
		"order_number": order.OrderNumber,
	})

	return s.orderRepo.FindByID(orderID)
}
