package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/repository"
	"github.com/martify/martify-backend/pkg/logger"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

var (
	ErrNotSellerOrder    = errors.New("order has no items from this seller")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// SellerOrderView is an order reduced to the seller's perspective: full
// order header, but only the seller's own lines and their subtotal.
type SellerOrderView struct {
	Order      model.Order       `json:"order"`
	Items      []model.OrderItem `json:"items"`
	ItemsTotal float64           `json:"items_total"`
}

type SellerService interface {
	GetSellerOrders(sellerID uint, status string) ([]SellerOrderView, error)
	UpdateOrderStatus(sellerID, orderID uint, status model.OrderStatus) (*model.Order, error)
	GetSellerStats(sellerID uint) (map[string]interface{}, error)
	ExportOrders(sellerID uint, status string) (*bytes.Buffer, error)
}

type sellerService struct {
	orderRepo repository.OrderRepository
}

func NewSellerService(orderRepo repository.OrderRepository) SellerService {
	return &sellerService{orderRepo: orderRepo}
}

func (s *sellerService) GetSellerOrders(sellerID uint, status string) ([]SellerOrderView, error) {
	logger.Debug("Fetching seller orders", map[string]interface{}{
		"seller_id": sellerID,
		"status":    status,
	})

	orders, err := s.orderRepo.FindBySellerID(sellerID, status)
	if err != nil {
		return nil, err
	}

	views := make([]SellerOrderView, 0, len(orders))
	for _, order := range orders {
		view := SellerOrderView{Order: order}
		for _, item := range order.OrderItems {
			if item.SellerID != sellerID {
				continue
			}
			view.Items = append(view.Items, item)
			view.ItemsTotal += item.TotalPrice
		}
		// Other sellers' lines stay out of the payload.
		view.Order.OrderItems = nil
		views = append(views, view)
	}

	return views, nil
}

// UpdateOrderStatus moves an order forward in fulfillment. Sellers may only
// advance processing to shipped and shipped to delivered; cancellation is
// the buyer's operation and terminal states never change.
func (s *sellerService) UpdateOrderStatus(sellerID, orderID uint, status model.OrderStatus) (*model.Order, error) {
	logger.Info("Seller updating order status", map[string]interface{}{
		"seller_id": sellerID,
		"order_id":  orderID,
		"status":    status,
	})

	ok, err := s.orderRepo.ContainsSeller(orderID, sellerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotSellerOrder
	}

	order, err := s.orderRepo.FindByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if !validSellerTransition(order.Status, status) {
		logger.Warn("Rejected order status transition", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       status,
		})
		return nil, ErrInvalidTransition
	}

	// Guarded on the status just read; if a buyer cancellation lands in
	// between, the update matches no row and the transition is rejected.
	updated, err := s.orderRepo.UpdateStatus(orderID, order.Status, status)
	if err != nil {
		return nil, err
	}
	if !updated {
		logger.Warn("Order status changed concurrently, transition rejected", map[string]interface{}{
			"order_id": orderID,
			"from":     order.Status,
			"to":       status,
		})
		return nil, ErrInvalidTransition
	}

	logger.Info("Order status updated by seller", map[string]interface{}{
		"order_id": orderID,
		"from":     order.Status,
		"to":       status,
	})
	return s.orderRepo.FindByID(orderID)
}

func validSellerTransition(from, to model.OrderStatus) bool {
	switch from {
	case model.OrderStatusProcessing:
		return to == model.OrderStatusShipped
	case model.OrderStatusShipped:
		return to == model.OrderStatusDelivered
	}
	return false
}

func (s *sellerService) GetSellerStats(sellerID uint) (map[string]interface{}, error) {
	return s.orderRepo.GetSellerStats(sellerID)
}

// ExportOrders writes the seller's order lines to an XLSX workbook for
// offline bookkeeping.
func (s *sellerService) ExportOrders(sellerID uint, status string) (*bytes.Buffer, error) {
	logger.Info("Exporting seller orders to XLSX", map[string]interface{}{
		"seller_id": sellerID,
		"status":    status,
	})

	views, err := s.GetSellerOrders(sellerID, status)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Orders"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Order Number", "Placed At", "Status", "Payment",
		"Product", "Quantity", "Unit Price", "Line Total",
		"Ship To", "City", "State", "PIN",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, view := range views {
		for _, item := range view.Items {
			values := []interface{}{
				view.Order.OrderNumber,
				view.Order.CreatedAt.Format("2006-01-02 15:04"),
				string(view.Order.Status),
				string(view.Order.PaymentMethod),
				item.ProductName,
				item.Quantity,
				item.UnitPrice,
				item.TotalPrice,
				view.Order.ShippingFullName,
				view.Order.ShippingCity,
				view.Order.ShippingState,
				view.Order.ShippingPinCode,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				f.SetCellValue(sheet, cell, v)
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		logger.Error("Failed to write XLSX export", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		return nil, fmt.Errorf("failed to build export: %w", err)
	}

	logger.Info("Seller order export built", map[string]interface{}{
		"seller_id": sellerID,
		"rows":      row - 2,
	})
	return buf, nil
}
