package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Kariqs/campus-store-api/models"
)

const (
	msgNoOrderItems       = "No order items"
	msgIncompleteShipping = "Please provide complete shipping address"
	msgBadPhone           = "Phone number must be 10 digits"
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// PlaceOrderRequest is the checkout payload. Any client-computed totals are
// not part of it; prices are recomputed from the item snapshot.
type PlaceOrderRequest struct {
	OrderItems      []models.OrderItem      `json:"orderItems"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod"`
}

type orderCheck func(PlaceOrderRequest) error

// orderChecks run in order; the first failure is the result.
var orderChecks = []orderCheck{
	checkHasItems,
	checkItemLines,
	checkShippingAddress,
	checkPhone,
}

// ValidatePlaceOrder checks the payload without touching the store.
func ValidatePlaceOrder(req PlaceOrderRequest) error {
	for _, check := range orderChecks {
		if err := check(req); err != nil {
			return err
		}
	}
	return nil
}

func checkHasItems(req PlaceOrderRequest) error {
	if len(req.OrderItems) == 0 {
		return &ValidationError{Field: "orderItems", Message: msgNoOrderItems}
	}
	return nil
}

func checkItemLines(req PlaceOrderRequest) error {
	for i, item := range req.OrderItems {
		switch {
		case strings.TrimSpace(item.Product) == "":
			return &ValidationError{
				Field:   fmt.Sprintf("orderItems[%d].product", i),
				Message: fmt.Sprintf("Order item %d is missing a product", i+1),
			}
		case item.Qty < 1:
			return &ValidationError{
				Field:   fmt.Sprintf("orderItems[%d].qty", i),
				Message: fmt.Sprintf("Quantity for %s must be at least 1", itemLabel(item, i)),
			}
		case item.Price < 0:
			return &ValidationError{
				Field:   fmt.Sprintf("orderItems[%d].price", i),
				Message: fmt.Sprintf("Price for %s cannot be negative", itemLabel(item, i)),
			}
		}
	}
	return nil
}

func checkShippingAddress(req PlaceOrderRequest) error {
	addr := req.ShippingAddress
	if addr == nil {
		return &ValidationError{Field: "shippingAddress", Message: msgIncompleteShipping}
	}

	fields := []struct {
		name  string
		value string
	}{
		{"address", addr.Address},
		{"city", addr.City},
		{"postalCode", addr.PostalCode},
		{"country", addr.Country},
		{"phone", addr.Phone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{
				Field:   "shippingAddress." + f.name,
				Message: fmt.Sprintf("%s (missing %s)", msgIncompleteShipping, f.name),
			}
		}
	}
	return nil
}

func checkPhone(req PlaceOrderRequest) error {
	if !phonePattern.MatchString(req.ShippingAddress.Phone) {
		return &ValidationError{Field: "shippingAddress.phone", Message: msgBadPhone}
	}
	return nil
}

func itemLabel(item models.OrderItem, i int) string {
	if item.Name != "" {
		return item.Name
	}
	return fmt.Sprintf("order item %d", i+1)
}
