package routes

import (
	"github.com/Kariqs/campus-store-api/controllers"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func DefaultRoutes(server *gin.Engine) {
	server.GET("/", controllers.GetHome)
	server.GET("/health", controllers.HealthCheck)
	server.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func UploadRoutes(api *gin.RouterGroup, requireAuth gin.HandlerFunc) {
	api.POST("/upload", requireAuth, middlewares.RequireAdmin(), controllers.UploadImage)
}
