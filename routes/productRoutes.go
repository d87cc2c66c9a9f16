package routes

import (
	"github.com/Kariqs/campus-store-api/controllers"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/gin-gonic/gin"
)

func ProductRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	products := api.Group("/products")
	{
		products.GET("", controllers.GetProducts)
		products.GET("/:id", controllers.GetProduct)
		products.POST("", requireAuth, middlewares.RequireAdmin(), controllers.CreateProduct)
		products.PUT("/:id", requireAuth, middlewares.RequireAdmin(), controllers.UpdateProduct)
		products.DELETE("/:id", requireAuth, middlewares.RequireAdmin(), controllers.DeleteProduct)
	}
}
