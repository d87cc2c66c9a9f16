package routes

import (
	"github.com/Kariqs/campus-store-api/controllers"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/gin-gonic/gin"
)

func OrderRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	orders := api.Group("/orders", requireAuth)
	{
		orders.POST("", controllers.PlaceOrder)
		orders.GET("/myorders", controllers.GetMyOrders)
		orders.GET("/track/:id", controllers.TrackOrder)

		admin := orders.Group("", middlewares.RequireAdmin())
		admin.GET("/all", controllers.GetAllOrders)
		admin.PUT("/:id/pay", controllers.MarkOrderPaid)
		admin.PUT("/:id/ship", controllers.MarkOrderShipped)
		admin.PUT("/:id/deliver", controllers.MarkOrderDelivered)
	}
}
