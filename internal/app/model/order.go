package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusProcessing OrderStatus = "processing" // placed, awaiting fulfillment
	OrderStatusShipped    OrderStatus = "shipped"    // handed to courier
	OrderStatusDelivered  OrderStatus = "delivered"  // received by buyer (terminal)
	OrderStatusCancelled  OrderStatus = "cancelled"  // cancelled by buyer (terminal)

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"

	PaymentMethodCOD    PaymentMethod = "cod"    // cash on delivery
	PaymentMethodOnline PaymentMethod = "online" // enum slot only, no gateway wired
)

// Terminal reports whether the status permits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Order is written once at checkout commit. The shipping_* columns are a
// snapshot of the selected address so later address edits or deletions do
// not alter order history.
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"user_id"`
	OrderNumber   string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"order_number"`
	Subtotal      float64        `gorm:"not null" json:"subtotal"`
	ShippingFee   float64        `gorm:"not null" json:"shipping_fee"`
	TotalAmount   float64        `gorm:"not null" json:"total_amount"`
	Status        OrderStatus    `gorm:"type:varchar(20);default:'processing'" json:"status"`
	PaymentMethod PaymentMethod  `gorm:"type:varchar(20)" json:"payment_method"`
	PaymentStatus PaymentStatus  `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	Notes         string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Shipping address snapshot, copied at order time.
	ShippingFullName     string `gorm:"size:100" json:"shipping_full_name"`
	ShippingPhone        string `gorm:"size:30" json:"shipping_phone"`
	ShippingAddressLine1 string `gorm:"type:text" json:"shipping_address_line_1"`
	ShippingAddressLine2 string `gorm:"type:text" json:"shipping_address_line_2"`
	ShippingCity         string `gorm:"size:100" json:"shipping_city"`
	ShippingState        string `gorm:"size:100" json:"shipping_state"`
	ShippingPinCode      string `gorm:"size:10" json:"shipping_pin_code"`

	User       User        `gorm:"foreignKey:UserID" json:"user,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is created atomically with its Order and never mutated. The
// product_* columns snapshot the product at purchase time so edits or
// deletion of the product do not corrupt order history.
type OrderItem struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	OrderID            uint           `gorm:"not null;index" json:"order_id"`
	ProductID          uint           `gorm:"not null;index" json:"product_id"`
	SellerID           uint           `gorm:"not null;index" json:"seller_id"`
	Quantity           int            `gorm:"not null" json:"quantity"`
	UnitPrice          float64        `gorm:"not null" json:"unit_price"`
	TotalPrice         float64        `gorm:"not null" json:"total_price"`
	ProductName        string         `gorm:"not null" json:"product_name"`
	ProductDescription string         `gorm:"type:text" json:"product_description"`
	ProductImage       string         `json:"product_image"`
	CreatedAt          time.Time      `json:"created_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	Order   Order   `gorm:"foreignKey:OrderID" json:"-"`
	Product Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
