package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kariqs/campus-store-api/models"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

// FindByUser returns the user's orders, newest first.
func (r *OrderRepository) FindByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find orders for user: %w", err)
	}
	return orders, nil
}

func (r *OrderRepository) FindAll(ctx context.Context) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	return orders, nil
}

// SetFlag applies updates to the order only while the guard column is still
// false, so a flag and its timestamp are written once. It reports whether a
// row changed.
func (r *OrderRepository) SetFlag(ctx context.Context, id, guardColumn string, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where(guardColumn+" = ?", false).
		Updates(updates)
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	return result.RowsAffected > 0, nil
}
