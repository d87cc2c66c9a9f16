package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Kariqs/campus-store-api/cart"
	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/Kariqs/campus-store-api/repositories"
	"github.com/Kariqs/campus-store-api/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const msgCartFailed = "Unable to update cart"

type cartItemInput struct {
	Product string `json:"product" binding:"required"`
	Qty     int    `json:"qty" binding:"required,min=1"`
}

type cartQtyInput struct {
	Qty int `json:"qty" binding:"required,min=1"`
}

func cartService() *services.CartService {
	return services.NewCartService(initializers.DB, orderService())
}

func cartView(c *cart.Cart) gin.H {
	return gin.H{
		"items":      c.Lines(),
		"itemsPrice": c.ItemsPrice(),
	}
}

// openCart loads the caller's cart or answers the request itself.
func openCart(ctx *gin.Context) (*cart.Cart, bool) {
	c, err := cartService().Open(ctx.Request.Context(), middlewares.UserID(ctx))
	if err != nil {
		respondWithServiceError(ctx, err, "Unable to load cart")
		return nil, false
	}
	return c, true
}

func respondWithCartError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		sendErrorResponse(ctx, http.StatusNotFound, "Item not in cart")
	case errors.Is(err, cart.ErrInvalidQuantity), errors.Is(err, cart.ErrMissingProduct):
		sendErrorResponse(ctx, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).WithField("user_id", middlewares.UserID(ctx)).Error(msgCartFailed)
		sendErrorResponse(ctx, http.StatusInternalServerError, msgCartFailed)
	}
}

func GetCart(ctx *gin.Context) {
	c, ok := openCart(ctx)
	if !ok {
		return
	}
	sendJSONResponse(ctx, http.StatusOK, cartView(c))
}

// AddCartItem puts a product in the cart priced from the current catalog.
// Adding a product already in the cart replaces its quantity.
func AddCartItem(ctx *gin.Context) {
	var input cartItemInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	product, err := repositories.NewProductRepository(initializers.DB).FindByID(ctx.Request.Context(), input.Product)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgProductNotFound)
			return
		}
		log.WithError(err).Error("Unable to retrieve product")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgCartFailed)
		return
	}
	if product.CountInStock < input.Qty {
		sendErrorResponse(ctx, http.StatusBadRequest,
			fmt.Sprintf("Not enough stock for %s. Only %d available", product.Name, product.CountInStock))
		return
	}

	c, ok := openCart(ctx)
	if !ok {
		return
	}

	line := cart.Line{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.Image,
		Price:     product.Price,
		Qty:       input.Qty,
	}
	if err := c.Add(ctx.Request.Context(), line); err != nil {
		respondWithCartError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, cartView(c))
}

func UpdateCartItem(ctx *gin.Context) {
	var input cartQtyInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	c, ok := openCart(ctx)
	if !ok {
		return
	}
	if err := c.UpdateQuantity(ctx.Request.Context(), ctx.Param("productId"), input.Qty); err != nil {
		respondWithCartError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, cartView(c))
}

func RemoveCartItem(ctx *gin.Context) {
	c, ok := openCart(ctx)
	if !ok {
		return
	}
	if err := c.Remove(ctx.Request.Context(), ctx.Param("productId")); err != nil {
		respondWithCartError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, cartView(c))
}

func ClearCart(ctx *gin.Context) {
	c, ok := openCart(ctx)
	if !ok {
		return
	}
	if err := c.Clear(ctx.Request.Context()); err != nil {
		respondWithCartError(ctx, err)
		return
	}
	sendJSONResponse(ctx, http.StatusOK, cartView(c))
}

// CheckoutCart places an order from the saved cart and empties it on success.
func CheckoutCart(ctx *gin.Context) {
	var req services.CheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	order, err := cartService().Checkout(ctx.Request.Context(), middlewares.UserID(ctx), req)
	if err != nil {
		respondWithServiceError(ctx, err, msgOrderFailed)
		return
	}
	sendJSONResponse(ctx, http.StatusCreated, order)
}
