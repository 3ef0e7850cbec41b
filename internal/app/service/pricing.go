package service

import (
	"github.com/martify/martify-backend/internal/app/model"
)

// Shipping pricing. Orders above the threshold ship free, everything else
// pays the flat rate.
const (
	FreeShippingThreshold = 2000.0
	FlatShippingRate      = 100.0
)

// Totals is the cart or order pricing summary returned to clients.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	Shipping  float64 `json:"shipping"`
	Total     float64 `json:"total"`
	ItemCount int     `json:"item_count"`
}

// ShippingFor returns the shipping charge for a subtotal. A subtotal of
// exactly the threshold still pays the flat rate.
func ShippingFor(subtotal float64) float64 {
	if subtotal > FreeShippingThreshold {
		return 0
	}
	return FlatShippingRate
}

// ComputeCartTotals prices the purchasable lines of a cart. Unavailable
// lines (inactive product or zero stock) are excluded so the checkout
// preview matches what an order would actually charge. An empty or fully
// unavailable cart prices to zero with no shipping.
func ComputeCartTotals(items []model.CartItem) Totals {
	var totals Totals
	for _, item := range items {
		if !item.Purchasable() {
			continue
		}
		totals.Subtotal += item.Product.Price * float64(item.Quantity)
		totals.ItemCount += item.Quantity
	}
	if totals.ItemCount == 0 {
		return totals
	}
	totals.Shipping = ShippingFor(totals.Subtotal)
	totals.Total = totals.Subtotal + totals.Shipping
	return totals
}

// ComputeOrderTotals re-derives totals from stored order lines. Used by the
// reconciliation job to verify total_amount still equals the line sum plus
// shipping.
func ComputeOrderTotals(items []model.OrderItem) Totals {
	var totals Totals
	for _, item := range items {
		totals.Subtotal += item.TotalPrice
		totals.ItemCount += item.Quantity
	}
	if totals.ItemCount == 0 {
		return totals
	}
	totals.Shipping = ShippingFor(totals.Subtotal)
	totals.Total = totals.Subtotal + totals.Shipping
	return totals
}
