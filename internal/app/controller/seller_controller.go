package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martify/martify-backend/internal/app/model"
	"github.com/martify/martify-backend/internal/app/service"
	apperrors "github.com/martify/martify-backend/internal/errors"
	"github.com/martify/martify-backend/internal/middleware"
)

type SellerController struct {
	sellerService service.SellerService
}

func NewSellerController(sellerService service.SellerService) *SellerController {
	return &SellerController{sellerService: sellerService}
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required"`
}

// GetSellerOrders lists orders containing the seller's products
// GET /api/v1/seller/orders?status=processing
func (ctrl *SellerController) GetSellerOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sellerID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	status := c.Query("status")

	orders, err := ctrl.sellerService.GetSellerOrders(sellerID, status)
	if err != nil {
		log.Error("Failed to fetch seller orders", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list seller orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"orders": orders,
		"count":  len(orders),
	})
}

// UpdateOrderStatus advances fulfillment on an order with the seller's items
// PUT /api/v1/seller/orders/:id/status
func (ctrl *SellerController) UpdateOrderStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sellerID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Status is required")
		return
	}

	order, err := ctrl.sellerService.UpdateOrderStatus(sellerID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			apperrors.NotFound(c, apperrors.OrderNotFound, "Order not found")
		case errors.Is(err, service.ErrNotSellerOrder):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzSellerOnly, "This order has no items from your shop")
		case errors.Is(err, service.ErrInvalidTransition):
			apperrors.Conflict(c, apperrors.OrderInvalidStatus, "That status change is not allowed")
		default:
			log.Error("Failed to update order status", err, map[string]interface{}{
				"seller_id": sellerID,
				"order_id":  id,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update order status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// GetStats returns the seller's order dashboard numbers
// GET /api/v1/seller/stats
func (ctrl *SellerController) GetStats(c *gin.Context) {
	sellerID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	stats, err := ctrl.sellerService.GetSellerStats(sellerID)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "seller stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ExportOrders streams the seller's orders as an XLSX download
// GET /api/v1/seller/orders/export?status=delivered
func (ctrl *SellerController) ExportOrders(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sellerID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	buf, err := ctrl.sellerService.ExportOrders(sellerID, c.Query("status"))
	if err != nil {
		log.Error("Failed to export orders", err, map[string]interface{}{
			"seller_id": sellerID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "export orders")
		return
	}

	filename := fmt.Sprintf("orders-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
