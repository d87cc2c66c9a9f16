package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kariqs/campus-store-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository binds the repository to db, which may be a transaction.
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &product, nil
}

// FindForUpdate reads a product and, where the dialect supports it, holds a
// row lock on it until the surrounding transaction ends.
func (r *ProductRepository) FindForUpdate(ctx context.Context, id string) (*models.Product, error) {
	query := r.db.WithContext(ctx)
	if supportsRowLocks(query) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock product %s: %w", id, err)
	}
	return &product, nil
}

// FindAll lists products, optionally restricted to one category (case-insensitive).
func (r *ProductRepository) FindAll(ctx context.Context, category string) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Order("created_at desc")
	if category != "" {
		query = query.Where("LOWER(category) = LOWER(?)", category)
	}

	products := []models.Product{}
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return products, nil
}

// Update writes only the given columns and returns the product as stored.
// Columns left out, count_in_stock in particular, keep whatever concurrent
// orders made of them.
func (r *ProductRepository) Update(ctx context.Context, id string, columns map[string]any) (*models.Product, error) {
	if len(columns) > 0 {
		result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(columns)
		if err := result.Error; err != nil {
			return nil, fmt.Errorf("failed to update product: %w", err)
		}
	}
	return r.FindByID(ctx, id)
}

// Delete soft-deletes the product. Orders keep their own snapshot of it.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty from the product's stock only if at least qty
// remains. A guard miss returns ErrStockChanged.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND count_in_stock >= ?", id, qty).
		Update("count_in_stock", gorm.Expr("count_in_stock - ?", qty))
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to decrement stock of %s: %w", id, err)
	}
	if result.RowsAffected == 0 {
		return ErrStockChanged
	}
	return nil
}

func supportsRowLocks(db *gorm.DB) bool {
	return db.Dialector.Name() != "sqlite"
}
