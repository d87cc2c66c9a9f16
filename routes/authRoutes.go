package routes

import (
	"github.com/Kariqs/campus-store-api/controllers"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/gin-gonic/gin"
)

func UserRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	users := api.Group("/users")
	{
		users.POST("", controllers.Register)
		users.POST("/login", controllers.Login)

		admin := users.Group("", requireAuth, middlewares.RequireAdmin())
		admin.GET("", controllers.GetUsers)
		admin.PUT("/:id", controllers.UpdateUser)
		admin.DELETE("/:id", controllers.DeleteUser)
	}
}
