package services

import (
	"context"
	"errors"

	"github.com/Kariqs/campus-store-api/models"
	"github.com/Kariqs/campus-store-api/repositories"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
)

// StatusLabel derives the display status from the order's flags. The most
// advanced stage wins.
func StatusLabel(order *models.Order) string {
	switch {
	case order.IsDelivered:
		return StatusDelivered
	case order.IsShipped:
		return StatusShipped
	case order.IsPaid:
		return StatusProcessing
	default:
		return StatusPending
	}
}

// AdminOrderView is an order with its owner joined in place of the user id.
type AdminOrderView struct {
	models.Order
	User *models.Owner `json:"user"`
}

// TrackedOrder adds the derived status to an order view.
type TrackedOrder struct {
	models.Order
	User   *models.Owner `json:"user"`
	Status string        `json:"status"`
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := repositories.NewOrderRepository(s.db).FindByUser(ctx, userID)
	if err != nil {
		return nil, &InternalError{Err: err}
	}
	return orders, nil
}

// ListAllOrders returns every order, newest first, with owners attached.
// Orders of deleted users keep a nil owner.
func (s *OrderService) ListAllOrders(ctx context.Context) ([]AdminOrderView, error) {
	orders, err := repositories.NewOrderRepository(s.db).FindAll(ctx)
	if err != nil {
		return nil, &InternalError{Err: err}
	}

	owners, err := s.ownersOf(ctx, orders...)
	if err != nil {
		return nil, err
	}

	views := make([]AdminOrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, AdminOrderView{Order: o, User: owners[o.UserID]})
	}
	return views, nil
}

// TrackOrder returns one order with its status. Non-admin viewers only see
// their own orders; anything else reads as not found.
func (s *OrderService) TrackOrder(ctx context.Context, orderID, viewerID string, isAdmin bool) (*TrackedOrder, error) {
	order, err := repositories.NewOrderRepository(s.db).FindByID(ctx, orderID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, &InternalError{Err: err}
	}
	if !isAdmin && order.UserID != viewerID {
		return nil, ErrOrderNotFound
	}

	owners, err := s.ownersOf(ctx, *order)
	if err != nil {
		return nil, err
	}

	return &TrackedOrder{
		Order:  *order,
		User:   owners[order.UserID],
		Status: StatusLabel(order),
	}, nil
}

func (s *OrderService) ownersOf(ctx context.Context, orders ...models.Order) (map[string]*models.Owner, error) {
	seen := make(map[string]struct{}, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if _, ok := seen[o.UserID]; ok {
			continue
		}
		seen[o.UserID] = struct{}{}
		ids = append(ids, o.UserID)
	}

	users, err := repositories.NewUserRepository(s.db).FindByIDs(ctx, ids)
	if err != nil {
		return nil, &InternalError{Err: err}
	}

	owners := make(map[string]*models.Owner, len(users))
	for id, u := range users {
		owners[id] = u.Owner()
	}
	return owners, nil
}
