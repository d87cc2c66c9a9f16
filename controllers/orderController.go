package controllers

import (
	"context"
	"net/http"

	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/Kariqs/campus-store-api/models"
	"github.com/Kariqs/campus-store-api/repositories"
	"github.com/Kariqs/campus-store-api/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const msgOrderFailed = "Server error while placing order"

// orderService assembles the order service from the process configuration.
func orderService() *services.OrderService {
	cfg := initializers.Cfg
	return services.NewOrderService(initializers.DB,
		services.WithPricing(services.Pricing{ShippingFee: cfg.ShippingFee, TaxRate: cfg.TaxRate}),
		services.WithMaxAttempts(cfg.OrderMaxAttempts),
		services.WithTimeout(cfg.OrderTimeout),
		services.WithAfterCommit(refreshCatalogAfterOrder, sendOrderConfirmation),
	)
}

// Committed orders change stock counts held in cached catalog documents.
func refreshCatalogAfterOrder(ctx context.Context, _ *models.Order) {
	invalidateCatalog(ctx)
}

// sendOrderConfirmation mails the owner in the background. Delivery problems
// are logged and never reach the shopper.
func sendOrderConfirmation(ctx context.Context, order *models.Order) {
	mailer := initializers.Mailer
	if !mailer.Enabled() {
		return
	}

	go func() {
		fields := log.Fields{"order_id": order.ID, "user_id": order.UserID}

		user, err := repositories.NewUserRepository(initializers.DB).FindByID(ctx, order.UserID)
		if err != nil {
			log.WithFields(fields).WithError(err).Warn("Order confirmation skipped, owner lookup failed")
			return
		}
		if err := mailer.SendOrderConfirmation(ctx, user.Email, user.Name, order); err != nil {
			log.WithFields(fields).WithError(err).Warn("Order confirmation email failed")
			return
		}
		log.WithFields(fields).Info("Order confirmation email sent")
	}()
}

// PlaceOrder creates an order for the caller, reserving stock for every item.
func PlaceOrder(ctx *gin.Context) {
	var req services.PlaceOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidInput)
		return
	}

	order, err := orderService().PlaceOrder(ctx.Request.Context(), middlewares.UserID(ctx), req)
	if err != nil {
		respondWithServiceError(ctx, err, msgOrderFailed)
		return
	}

	sendJSONResponse(ctx, http.StatusCreated, order)
}

func GetMyOrders(ctx *gin.Context) {
	orders, err := orderService().ListMyOrders(ctx.Request.Context(), middlewares.UserID(ctx))
	if err != nil {
		respondWithServiceError(ctx, err, "Error fetching orders")
		return
	}
	sendJSONResponse(ctx, http.StatusOK, orders)
}

func GetAllOrders(ctx *gin.Context) {
	orders, err := orderService().ListAllOrders(ctx.Request.Context())
	if err != nil {
		respondWithServiceError(ctx, err, "Error fetching orders")
		return
	}
	sendJSONResponse(ctx, http.StatusOK, orders)
}

func TrackOrder(ctx *gin.Context) {
	order, err := orderService().TrackOrder(ctx.Request.Context(), ctx.Param("id"), middlewares.UserID(ctx), middlewares.IsAdmin(ctx))
	if err != nil {
		respondWithServiceError(ctx, err, "Error tracking order")
		return
	}
	sendJSONResponse(ctx, http.StatusOK, order)
}

func MarkOrderPaid(ctx *gin.Context) {
	updateOrderStatus(ctx, (*services.OrderService).MarkPaid)
}

func MarkOrderShipped(ctx *gin.Context) {
	updateOrderStatus(ctx, (*services.OrderService).MarkShipped)
}

func MarkOrderDelivered(ctx *gin.Context) {
	updateOrderStatus(ctx, (*services.OrderService).MarkDelivered)
}

type orderWithStatus struct {
	*models.Order
	Status string `json:"status"`
}

type orderTransition func(*services.OrderService, context.Context, string) (*models.Order, error)

func updateOrderStatus(ctx *gin.Context, transition orderTransition) {
	order, err := transition(orderService(), ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondWithServiceError(ctx, err, "Error updating order")
		return
	}
	sendJSONResponse(ctx, http.StatusOK, orderWithStatus{Order: order, Status: services.StatusLabel(order)})
}
