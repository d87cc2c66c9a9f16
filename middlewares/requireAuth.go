package middlewares

import (
	"net/http"
	"strings"

	"github.com/Kariqs/campus-store-api/utils"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID  = "user_id"
	ContextIsAdmin = "is_admin"
)

// RequireAuth resolves the bearer token into the caller's identity. Handlers
// behind it read the identity with UserID and IsAdmin.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, no token"})
			return
		}

		claims, err := utils.ParseJWT(token, secret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not authorized, token failed"})
			return
		}

		ctx.Set(ContextUserID, claims.UserID)
		ctx.Set(ContextIsAdmin, claims.IsAdmin)
		ctx.Next()
	}
}

func UserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserID)
}

func IsAdmin(ctx *gin.Context) bool {
	return ctx.GetBool(ContextIsAdmin)
}
