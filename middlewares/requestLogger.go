package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		status := ctx.Writer.Status()
		entry := log.WithFields(log.Fields{
			"method":    ctx.Request.Method,
			"path":      ctx.Request.URL.Path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": ctx.ClientIP(),
		})
		if userID := UserID(ctx); userID != "" {
			entry = entry.WithField("user_id", userID)
		}

		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request handled")
		}
	}
}
