package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Kariqs/campus-store-api/cart"
	"github.com/Kariqs/campus-store-api/models"
	"gorm.io/gorm"
)

// CartRepository persists carts and satisfies cart.Persister.
type CartRepository struct {
	db *gorm.DB
}

var _ cart.Persister = (*CartRepository)(nil)

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Load returns the user's saved cart lines; a user with no cart gets none.
func (r *CartRepository) Load(ctx context.Context, userID string) ([]cart.Line, error) {
	var stored models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Where("user_id = ?", userID).
		First(&stored).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []cart.Line{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	lines := make([]cart.Line, 0, len(stored.Items))
	for _, item := range stored.Items {
		lines = append(lines, cart.Line{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Qty:       item.Qty,
		})
	}
	return lines, nil
}

// Save replaces the stored lines of the user's cart with lines.
func (r *CartRepository) Save(ctx context.Context, userID string, lines []cart.Line) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored := models.Cart{UserID: userID}
		if err := tx.Where(models.Cart{UserID: userID}).FirstOrCreate(&stored).Error; err != nil {
			return fmt.Errorf("failed to open cart: %w", err)
		}

		if err := tx.Where("cart_id = ?", stored.ID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to clear cart items: %w", err)
		}

		if len(lines) > 0 {
			items := make([]models.CartItem, 0, len(lines))
			for i, l := range lines {
				items = append(items, models.CartItem{
					CartID:    stored.ID,
					Position:  i,
					ProductID: l.ProductID,
					Name:      l.Name,
					Image:     l.Image,
					Price:     l.Price,
					Qty:       l.Qty,
				})
			}
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("failed to save cart items: %w", err)
			}
		}

		return tx.Model(&stored).Update("updated_at", time.Now()).Error
	})
}

// RemoveLines deletes the given lines from the user's cart, matching product
// and quantity. Lines added or requantified since they were read stay.
func (r *CartRepository) RemoveLines(ctx context.Context, userID string, lines []cart.Line) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stored models.Cart
		err := tx.Where("user_id = ?", userID).First(&stored).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to open cart: %w", err)
		}

		for _, l := range lines {
			err := tx.Where("cart_id = ? AND product_id = ? AND qty = ?", stored.ID, l.ProductID, l.Qty).
				Delete(&models.CartItem{}).Error
			if err != nil {
				return fmt.Errorf("failed to remove cart item: %w", err)
			}
		}
		return nil
	})
}
