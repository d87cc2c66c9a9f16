package routes

import (
	"time"

	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/Kariqs/campus-store-api/metrics"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the HTTP engine from initializers.Cfg.
func SetupRouter() *gin.Engine {
	cfg := initializers.Cfg
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := gin.New()
	server.Use(gin.Recovery(), middlewares.RequestLogger(), metrics.PrometheusMiddleware())
	server.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	server.MaxMultipartMemory = 8 << 20

	if cfg.UploadBackend != "s3" && cfg.UploadDir != "" {
		server.Static("/uploads", cfg.UploadDir)
	}

	requireAuth := middlewares.RequireAuth([]byte(cfg.JWTSecret))

	DefaultRoutes(server)
	api := server.Group("/api")
	UserRoutes(api, requireAuth)
	ProductRoutes(api, requireAuth)
	OrderRoutes(api, requireAuth)
	CartRoutes(api, requireAuth)
	UploadRoutes(api, requireAuth)

	return server
}
