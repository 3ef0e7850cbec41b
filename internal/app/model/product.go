package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	SellerID      uint           `gorm:"not null;index" json:"seller_id"`
	Name          string         `gorm:"not null" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	Price         float64        `gorm:"not null" json:"price"`
	Category      string         `gorm:"type:varchar(50);index" json:"category"`
	Images        pq.StringArray `gorm:"type:text" json:"images"`
	StockQuantity int            `gorm:"default:0" json:"stock_quantity"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Seller     User        `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:ProductID" json:"-"`
	CartItems  []CartItem  `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// FirstImage returns the primary product image, or "" when none exist.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Purchasable reports whether the product can currently be ordered.
func (p *Product) Purchasable() bool {
	return p.IsActive && p.StockQuantity > 0
}
