package model

import (
	"time"

	"gorm.io/gorm"
)

type Address struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	FullName     string         `gorm:"size:100;not null" json:"full_name"`
	Phone        string         `gorm:"size:30;not null" json:"phone"`
	AddressLine1 string         `gorm:"type:text;not null" json:"address_line_1"`
	AddressLine2 string         `gorm:"type:text" json:"address_line_2"`
	City         string         `gorm:"size:100;not null" json:"city"`
	State        string         `gorm:"size:100;not null" json:"state"`
	PinCode      string         `gorm:"size:10;not null" json:"pin_code"`
	IsDefault    bool           `gorm:"default:false" json:"is_default"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Address) TableName() string {
	return "addresses"
}
