package repository

import (
	"time"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderRepository interface {
	FindByID(id uint) (*model.Order, error)
	FindByOrderNumber(orderNumber string) (*model.Order, error)
	FindByUserID(userID uint) ([]model.Order, error)
	FindBySellerID(sellerID uint, status string) ([]model.Order, error)
	ContainsSeller(orderID, sellerID uint) (bool, error)
	UpdateStatus(id uint, from, to model.OrderStatus) (bool, error)
	UpdatePaymentStatus(id uint, status model.PaymentStatus) error
	GetSellerStats(sellerID uint) (map[string]interface{}, error)
	FindCreatedSince(since time.Time) ([]model.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder() *gorm.DB {
	return r.db.Preload("OrderItems").Preload("User")
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder().First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByOrderNumber(orderNumber string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByUserID(userID uint) ([]model.Order, error) {
	logger.Debug("Finding orders by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var orders []model.Order
	if err := r.preloadOrder().Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Orders found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"count":   len(orders),
	})
	return orders, nil
}

// FindBySellerID returns orders containing at least one line sold by the
// seller. Line filtering down to the seller's own items happens in the
// service, the full order record is still needed for status and shipping.
func (r *orderRepository) FindBySellerID(sellerID uint, status string) ([]model.Order, error) {
	logger.Debug("Finding orders by seller ID in database", map[string]interface{}{
		"seller_id": sellerID,
		"status":    status,
	})

	query := r.db.Model(&model.Order{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.seller_id = ?", sellerID).
		Group("orders.id")

	if status != "" {
		query = query.Where("orders.status = ?", status)
	}

	var orderIDs []uint
	if err := query.Pluck("orders.id", &orderIDs).Error; err != nil {
		logger.Error("Failed to find order IDs by seller ID in database", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []model.Order{}, nil
	}

	var orders []model.Order
	if err := r.preloadOrder().Where("id IN ?", orderIDs).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders by seller ID in database", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		return nil, err
	}

	logger.Debug("Orders found by seller ID in database", map[string]interface{}{
		"seller_id": sellerID,
		"count":     len(orders),
	})
	return orders, nil
}

func (r *orderRepository) ContainsSeller(orderID, sellerID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&model.OrderItem{}).
		Where("order_id = ? AND seller_id = ?", orderID, sellerID).
		Count(&count).Error; err != nil {
		logger.Error("Failed to check seller membership in order", err, map[string]interface{}{
			"order_id":  orderID,
			"seller_id": sellerID,
		})
		return false, err
	}
	return count > 0, nil
}

// UpdateStatus flips the status only while the row still holds the expected
// current status, so a write racing against a buyer cancellation loses
// instead of overwriting it. Returns false when the guard matched no row.
func (r *orderRepository) UpdateStatus(id uint, from, to model.OrderStatus) (bool, error) {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"from":     from,
		"to":       to,
	})

	res := r.db.Model(&model.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		logger.Error("Failed to update order status in database", res.Error, map[string]interface{}{
			"order_id": id,
			"from":     from,
			"to":       to,
		})
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *orderRepository) UpdatePaymentStatus(id uint, status model.PaymentStatus) error {
	logger.Debug("Updating order payment status in database", map[string]interface{}{
		"order_id":       id,
		"payment_status": status,
	})

	if err := r.db.Model(&model.Order{}).Where("id = ?", id).
		Update("payment_status", status).Error; err != nil {
		logger.Error("Failed to update order payment status in database", err, map[string]interface{}{
			"order_id":       id,
			"payment_status": status,
		})
		return err
	}
	return nil
}

// GetSellerStats aggregates the seller's dashboard numbers. total_orders
// counts every order containing the seller's items, cancelled included (the
// per-status counts break it down); total_revenue and total_items_sold sum
// only the seller's own lines in non-cancelled orders.
func (r *orderRepository) GetSellerStats(sellerID uint) (map[string]interface{}, error) {
	logger.Debug("Getting order statistics by seller in database", map[string]interface{}{
		"seller_id": sellerID,
	})

	baseQuery := r.db.Model(&model.Order{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("order_items.seller_id = ?", sellerID)

	var totalOrders int64
	if err := baseQuery.Session(&gorm.Session{}).
		Distinct("orders.id").
		Count(&totalOrders).Error; err != nil {
		logger.Error("Failed to count total orders for seller", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		return nil, err
	}

	statusCounts := []struct {
		Status model.OrderStatus
		Count  int64
	}{}
	if err := baseQuery.Session(&gorm.Session{}).
		Select("orders.status, COUNT(DISTINCT orders.id) as count").
		Group("orders.status").
		Scan(&statusCounts).Error; err != nil {
		logger.Error("Failed to count orders by status for seller", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		return nil, err
	}

	var processingOrders, shippedOrders, deliveredOrders, cancelledOrders int64
	for _, sc := range statusCounts {
		switch sc.Status {
		case model.OrderStatusProcessing:
			processingOrders = sc.Count
		case model.OrderStatusShipped:
			shippedOrders = sc.Count
		case model.OrderStatusDelivered:
			deliveredOrders = sc.Count
		case model.OrderStatusCancelled:
			cancelledOrders = sc.Count
		}
	}

	// Revenue counts the seller's own lines only, cancelled orders excluded.
	var totalRevenue float64
	if err := r.db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.seller_id = ? AND orders.status != ?", sellerID, model.OrderStatusCancelled).
		Select("COALESCE(SUM(order_items.total_price), 0)").
		Scan(&totalRevenue).Error; err != nil {
		logger.Error("Failed to sum revenue for seller", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		return nil, err
	}

	var totalItemsSold int64
	if err := r.db.Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("order_items.seller_id = ? AND orders.status != ?", sellerID, model.OrderStatusCancelled).
		Select("COALESCE(SUM(order_items.quantity), 0)").
		Scan(&totalItemsSold).Error; err != nil {
		logger.Error("Failed to sum items sold for seller", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		return nil, err
	}

	stats := map[string]interface{}{
		"total_orders":      totalOrders,
		"processing_orders": processingOrders,
		"shipped_orders":    shippedOrders,
		"delivered_orders":  deliveredOrders,
		"cancelled_orders":  cancelledOrders,
		"total_revenue":     totalRevenue,
		"total_items_sold":  totalItemsSold,
	}

	logger.Debug("Seller order statistics computed", map[string]interface{}{
		"seller_id":    sellerID,
		"total_orders": totalOrders,
	})
	return stats, nil
}

// FindCreatedSince is used by the nightly reconciliation job.
func (r *orderRepository) FindCreatedSince(since time.Time) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.Preload("OrderItems").
		Where("created_at >= ?", since).
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders created since", err, map[string]interface{}{
			"since": since,
		})
		return nil, err
	}
	return orders, nil
}
