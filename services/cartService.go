package services

import (
	"context"

	"github.com/Kariqs/campus-store-api/cart"
	"github.com/Kariqs/campus-store-api/metrics"
	"github.com/Kariqs/campus-store-api/models"
	"github.com/Kariqs/campus-store-api/repositories"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CartService loads persisted carts and turns them into orders.
type CartService struct {
	carts  *repositories.CartRepository
	orders *OrderService
}

func NewCartService(db *gorm.DB, orders *OrderService) *CartService {
	return &CartService{
		carts:  repositories.NewCartRepository(db),
		orders: orders,
	}
}

// Open returns the user's cart bound to the store, so every mutation is saved.
func (s *CartService) Open(ctx context.Context, userID string) (*cart.Cart, error) {
	lines, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, &InternalError{Err: err}
	}
	return cart.New(userID, lines, s.carts), nil
}

type CheckoutRequest struct {
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                  `json:"paymentMethod"`
}

// Checkout places an order from the saved cart. Once the order commits, the
// ordered lines leave the cart; lines added or changed meanwhile stay. A
// failed placement leaves the cart untouched.
func (s *CartService) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*models.Order, error) {
	c, err := s.Open(ctx, userID)
	if err != nil {
		return nil, err
	}

	ordered := c.Lines()
	order, err := s.orders.PlaceOrder(ctx, userID, PlaceOrderRequest{
		OrderItems:      toOrderItems(ordered),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		metrics.CartCheckouts.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}
	metrics.CartCheckouts.WithLabelValues(metrics.OutcomeCreated).Inc()

	if err := s.carts.RemoveLines(ctx, userID, ordered); err != nil {
		// The order stands; a stale cart is only an inconvenience.
		log.WithFields(log.Fields{
			"user_id":  userID,
			"order_id": order.ID,
		}).WithError(err).Warn("Failed to remove ordered lines from cart")
	}
	return order, nil
}

func toOrderItems(lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItem{
			Product: l.ProductID,
			Name:    l.Name,
			Qty:     l.Qty,
			Image:   l.Image,
			Price:   l.Price,
		})
	}
	return items
}
