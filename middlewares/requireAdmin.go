package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if _, exists := ctx.Get(ContextUserID); !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}

		if !IsAdmin(ctx) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Not authorized as an admin"})
			return
		}

		ctx.Next()
	}
}
