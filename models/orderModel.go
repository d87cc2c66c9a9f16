package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	PaymentMethodCOD = "Cash on Delivery"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// OrderItem is a line item copied into the order when it is placed.
// It never follows later edits of the referenced product.
type OrderItem struct {
	Product string  `json:"product"`
	Name    string  `json:"name"`
	Qty     int     `json:"qty"`
	Image   string  `json:"image"`
	Price   float64 `json:"price"`
}

type ShippingAddress struct {
	Address    string `gorm:"size:255" json:"address"`
	City       string `gorm:"size:100" json:"city"`
	PostalCode string `gorm:"size:20" json:"postalCode"`
	Country    string `gorm:"size:100" json:"country"`
	Phone      string `gorm:"size:10" json:"phone"`
}

type PaymentResult struct {
	TransactionID *string    `gorm:"size:100" json:"id"`
	Status        string     `gorm:"size:20;not null" json:"status"`
	UpdateTime    *time.Time `json:"update_time"`
	EmailAddress  *string    `gorm:"size:255" json:"email_address"`
}

type Order struct {
	ID              string                         `gorm:"primaryKey;size:36" json:"_id"`
	UserID          string                         `gorm:"size:36;index;not null" json:"user"`
	OrderItems      datatypes.JSONSlice[OrderItem] `gorm:"not null" json:"orderItems"`
	ShippingAddress ShippingAddress                `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PaymentMethod   string                         `gorm:"size:50;not null" json:"paymentMethod"`
	PaymentResult   PaymentResult                  `gorm:"embedded;embeddedPrefix:payment_" json:"paymentResult"`
	ItemsPrice      float64                        `gorm:"not null;default:0" json:"itemsPrice"`
	ShippingPrice   float64                        `gorm:"not null;default:0" json:"shippingPrice"`
	TaxPrice        float64                        `gorm:"not null;default:0" json:"taxPrice"`
	TotalPrice      float64                        `gorm:"not null;default:0" json:"totalPrice"`
	IsPaid          bool                           `gorm:"not null;default:false" json:"isPaid"`
	PaidAt          *time.Time                     `json:"paidAt"`
	IsShipped       bool                           `gorm:"not null;default:false" json:"isShipped"`
	ShippedAt       *time.Time                     `json:"shippedAt"`
	IsDelivered     bool                           `gorm:"not null;default:false" json:"isDelivered"`
	DeliveredAt     *time.Time                     `json:"deliveredAt"`
	CreatedAt       time.Time                      `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time                      `json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}
