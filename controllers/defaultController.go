package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func GetHome(ctx *gin.Context) {
	message := `Welcome to the Campus Store API. The following are the endpoints for this API:

USERS
- POST "/api/users" - Register
- POST "/api/users/login" - Log in
- GET "/api/users" - List users (admin)
- PUT "/api/users/:id" - Update user (admin)
- DELETE "/api/users/:id" - Delete user (admin)

PRODUCTS
- GET "/api/products?category=" - List products
- GET "/api/products/:id" - Get product by ID
- POST "/api/products" - Create product (admin)
- PUT "/api/products/:id" - Update product (admin)
- DELETE "/api/products/:id" - Delete product (admin)

ORDERS
- POST "/api/orders" - Place an order
- GET "/api/orders/myorders" - Caller's orders
- GET "/api/orders/all" - All orders (admin)
- GET "/api/orders/track/:id" - Track an order
- PUT "/api/orders/:id/pay" - Mark paid (admin)
- PUT "/api/orders/:id/ship" - Mark shipped (admin)
- PUT "/api/orders/:id/deliver" - Mark delivered (admin)

CART
- GET "/api/cart" - Saved cart
- POST "/api/cart/items" - Add item
- PUT "/api/cart/items/:productId" - Change quantity
- DELETE "/api/cart/items/:productId" - Remove item
- DELETE "/api/cart" - Empty cart
- POST "/api/cart/checkout" - Order the cart

UPLOAD
- POST "/api/upload" - Upload a product image (admin)`

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": message,
	})
}

// HealthCheck reports whether the database answers.
func HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := initializers.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(pingCtx)
	}
	if err != nil {
		log.WithError(err).Error("Health check failed")
		sendJSONResponse(ctx, http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}

	if err := initializers.Cache.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("Catalog cache unreachable")
		sendJSONResponse(ctx, http.StatusOK, gin.H{"status": "degraded", "cache": "unavailable"})
		return
	}
	sendJSONResponse(ctx, http.StatusOK, gin.H{"status": "ok"})
}
