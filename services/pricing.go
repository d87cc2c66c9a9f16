package services

import (
	"math"

	"github.com/Kariqs/campus-store-api/models"
)

// Pricing computes order totals on the server. Client totals are never used.
type Pricing struct {
	ShippingFee float64
	TaxRate     float64
}

type Totals struct {
	ItemsPrice    float64
	ShippingPrice float64
	TaxPrice      float64
	TotalPrice    float64
}

func (p Pricing) Totals(items []models.OrderItem) Totals {
	var itemsPrice float64
	for _, item := range items {
		itemsPrice += item.Price * float64(item.Qty)
	}
	itemsPrice = round2(itemsPrice)
	tax := round2(itemsPrice * p.TaxRate)

	return Totals{
		ItemsPrice:    itemsPrice,
		ShippingPrice: p.ShippingFee,
		TaxPrice:      tax,
		TotalPrice:    round2(itemsPrice + p.ShippingFee + tax),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
