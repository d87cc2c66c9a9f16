package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CartItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	CartID    string  `gorm:"size:36;index;not null" json:"-"`
	Position  int     `gorm:"not null;default:0" json:"-"`
	ProductID string  `gorm:"size:36;not null" json:"product"`
	Name      string  `gorm:"size:200" json:"name"`
	Image     string  `gorm:"size:500" json:"image"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
}

type Cart struct {
	ID        string     `gorm:"primaryKey;size:36" json:"_id"`
	UserID    string     `gorm:"size:36;uniqueIndex;not null" json:"user"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
