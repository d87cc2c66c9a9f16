package services

import (
	"context"
	"errors"

	"github.com/Kariqs/campus-store-api/models"
	"github.com/Kariqs/campus-store-api/repositories"
	log "github.com/sirupsen/logrus"
)

// MarkPaid records payment. Repeating it keeps the first paidAt.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string) (*models.Order, error) {
	now := s.now()
	return s.setFlag(ctx, orderID, "is_paid", map[string]any{
		"is_paid":             true,
		"paid_at":             now,
		"payment_status":      models.PaymentStatusPaid,
		"payment_update_time": now,
	})
}

func (s *OrderService) MarkShipped(ctx context.Context, orderID string) (*models.Order, error) {
	return s.setFlag(ctx, orderID, "is_shipped", map[string]any{
		"is_shipped": true,
		"shipped_at": s.now(),
	})
}

// MarkDelivered also marks an unshipped order as shipped at the same instant.
func (s *OrderService) MarkDelivered(ctx context.Context, orderID string) (*models.Order, error) {
	now := s.now()
	if _, err := s.setFlag(ctx, orderID, "is_shipped", map[string]any{
		"is_shipped": true,
		"shipped_at": now,
	}); err != nil {
		return nil, err
	}
	return s.setFlag(ctx, orderID, "is_delivered", map[string]any{
		"is_delivered": true,
		"delivered_at": now,
	})
}

func (s *OrderService) setFlag(ctx context.Context, orderID, guard string, updates map[string]any) (*models.Order, error) {
	orders := repositories.NewOrderRepository(s.db)

	changed, err := orders.SetFlag(ctx, orderID, guard, updates)
	if err != nil {
		return nil, &InternalError{Err: err}
	}

	order, err := orders.FindByID(ctx, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, &InternalError{Err: err}
	}

	if changed {
		log.WithFields(log.Fields{
			"order_id": orderID,
			"status":   StatusLabel(order),
		}).Info("Order status updated")
	}
	return order, nil
}
