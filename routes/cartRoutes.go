package routes

import (
	"github.com/Kariqs/campus-store-api/controllers"
	"github.com/gin-gonic/gin"
)

func CartRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	cart := api.Group("/cart", requireAuth)
	{
		cart.GET("", controllers.GetCart)
		cart.DELETE("", controllers.ClearCart)
		cart.POST("/items", controllers.AddCartItem)
		cart.PUT("/items/:productId", controllers.UpdateCartItem)
		cart.DELETE("/items/:productId", controllers.RemoveCartItem)
		cart.POST("/checkout", controllers.CheckoutCart)
	}
}
