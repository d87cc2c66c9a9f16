package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Kariqs/campus-store-api/cache"
	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/Kariqs/campus-store-api/models"
	"github.com/Kariqs/campus-store-api/repositories"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// productInput carries optional fields so updates can be partial.
type productInput struct {
	Name         *string  `json:"name"`
	Price        *float64 `json:"price"`
	Description  *string  `json:"description"`
	Image        *string  `json:"image"`
	Category     *string  `json:"category"`
	CountInStock *int     `json:"countInStock"`
}

func (in productInput) applyTo(p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.CountInStock != nil {
		p.CountInStock = *in.CountInStock
	}
}

// columns lists the fields present in the request by column name.
func (in productInput) columns() map[string]any {
	columns := map[string]any{}
	if in.Name != nil {
		columns["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Price != nil {
		columns["price"] = *in.Price
	}
	if in.Description != nil {
		columns["description"] = *in.Description
	}
	if in.Image != nil {
		columns["image"] = *in.Image
	}
	if in.Category != nil {
		columns["category"] = strings.TrimSpace(*in.Category)
	}
	if in.CountInStock != nil {
		columns["count_in_stock"] = *in.CountInStock
	}
	return columns
}

func validateProduct(p *models.Product) string {
	switch {
	case p.Name == "":
		return "Product name is required"
	case p.Price < 0:
		return "Price cannot be negative"
	case p.CountInStock < 0:
		return "Count in stock cannot be negative"
	case !models.IsValidCategory(p.Category):
		return fmt.Sprintf("Category must be one of: %s", strings.Join(models.Categories, ", "))
	}
	return ""
}

func invalidateCatalog(ctx context.Context) {
	if err := initializers.Cache.InvalidateProducts(ctx); err != nil {
		log.WithError(err).Warn("Failed to invalidate catalog cache")
	}
}

func GetProducts(ctx *gin.Context) {
	category := strings.TrimSpace(ctx.Query("category"))
	key := cache.ProductListKey(category)

	products := []models.Product{}
	hit, err := initializers.Cache.Get(ctx.Request.Context(), key, &products)
	if err != nil {
		log.WithError(err).Warn("Catalog cache read failed")
	}
	if hit {
		sendJSONResponse(ctx, http.StatusOK, products)
		return
	}

	products, err = repositories.NewProductRepository(initializers.DB).FindAll(ctx.Request.Context(), category)
	if err != nil {
		log.WithError(err).Error("Error fetching products")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Error fetching products")
		return
	}

	if err := initializers.Cache.Set(ctx.Request.Context(), key, products); err != nil {
		log.WithError(err).Warn("Catalog cache write failed")
	}
	sendJSONResponse(ctx, http.StatusOK, products)
}

func GetProduct(ctx *gin.Context) {
	id := ctx.Param("id")
	key := cache.ProductKey(id)

	var product models.Product
	hit, err := initializers.Cache.Get(ctx.Request.Context(), key, &product)
	if err != nil {
		log.WithError(err).Warn("Catalog cache read failed")
	}
	if hit {
		sendJSONResponse(ctx, http.StatusOK, product)
		return
	}

	found, err := repositories.NewProductRepository(initializers.DB).FindByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgProductNotFound)
			return
		}
		log.WithError(err).WithField("product_id", id).Error("Unable to retrieve product")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to retrieve product")
		return
	}

	if err := initializers.Cache.Set(ctx.Request.Context(), key, found); err != nil {
		log.WithError(err).Warn("Catalog cache write failed")
	}
	sendJSONResponse(ctx, http.StatusOK, found)
}

func CreateProduct(ctx *gin.Context) {
	var input productInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	var product models.Product
	input.applyTo(&product)
	if msg := validateProduct(&product); msg != "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msg)
		return
	}

	if err := repositories.NewProductRepository(initializers.DB).Create(ctx.Request.Context(), &product); err != nil {
		log.WithError(err).Error("Failed to create product")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to create product")
		return
	}

	invalidateCatalog(ctx.Request.Context())
	sendJSONResponse(ctx, http.StatusCreated, product)
}

// UpdateProduct applies a partial update. Only the fields in the request are
// written, so stock sold while the admin edits is kept. Setting countInStock
// here is an admin restock, not an order.
func UpdateProduct(ctx *gin.Context) {
	var input productInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	products := repositories.NewProductRepository(initializers.DB)
	product, err := products.FindByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgProductNotFound)
			return
		}
		log.WithError(err).Error("Unable to retrieve product")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Unable to retrieve product")
		return
	}

	input.applyTo(product)
	if msg := validateProduct(product); msg != "" {
		sendErrorResponse(ctx, http.StatusBadRequest, msg)
		return
	}

	updated, err := products.Update(ctx.Request.Context(), product.ID, input.columns())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgProductNotFound)
			return
		}
		log.WithError(err).WithField("product_id", product.ID).Error("Failed to update product")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to update product")
		return
	}

	invalidateCatalog(ctx.Request.Context())
	sendJSONResponse(ctx, http.StatusOK, updated)
}

func DeleteProduct(ctx *gin.Context) {
	id := ctx.Param("id")
	if err := repositories.NewProductRepository(initializers.DB).Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgProductNotFound)
			return
		}
		log.WithError(err).WithField("product_id", id).Error("Failed to delete product")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	invalidateCatalog(ctx.Request.Context())
	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "Product removed"})
}
