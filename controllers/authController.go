package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/Kariqs/campus-store-api/models"
	"github.com/Kariqs/campus-store-api/repositories"
	"github.com/Kariqs/campus-store-api/services"
	"github.com/Kariqs/campus-store-api/utils"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	// Standard response messages
	msgInvalidInput          = "Invalid request body"
	msgInvalidUserData       = "Invalid user data"
	msgUserAlreadyExists     = "User already exists"
	msgInvalidCredentials    = "Invalid email or password"
	msgFailedToGenerateToken = "Failed to generate token"
	msgInternalServerError   = "Internal server error"
	msgUserNotFound          = "User not found"
	msgProductNotFound       = "Product not found"
	msgOrderNotFound         = "Order not found"
)

func sendJSONResponse(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, data)
}

func sendErrorResponse(ctx *gin.Context, status int, message string) {
	sendJSONResponse(ctx, status, gin.H{"message": message})
}

// respondWithServiceError maps service errors onto HTTP. Client faults keep
// their message; anything unexpected is logged and answered generically.
func respondWithServiceError(ctx *gin.Context, err error, fallback string) {
	var (
		validation *services.ValidationError
		notFound   *services.NotFoundError
		stock      *services.InsufficientStockError
	)
	switch {
	case errors.As(err, &validation):
		sendJSONResponse(ctx, http.StatusBadRequest, gin.H{"message": validation.Message, "field": validation.Field})
	case errors.As(err, &notFound):
		sendJSONResponse(ctx, http.StatusBadRequest, gin.H{"message": notFound.Error(), "product": notFound.ProductID})
	case errors.As(err, &stock):
		sendJSONResponse(ctx, http.StatusBadRequest, gin.H{
			"message":   stock.Error(),
			"product":   stock.ProductID,
			"available": stock.Available,
		})
	case errors.Is(err, services.ErrOrderNotFound):
		sendErrorResponse(ctx, http.StatusNotFound, msgOrderNotFound)
	default:
		log.WithFields(log.Fields{
			"path":    ctx.FullPath(),
			"user_id": middlewares.UserID(ctx),
		}).WithError(err).Error(fallback)
		sendErrorResponse(ctx, http.StatusInternalServerError, fallback)
	}
}

func authResponse(user *models.User, token string) gin.H {
	return gin.H{
		"_id":     user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"isAdmin": user.IsAdmin,
		"token":   token,
	}
}

func generateJWT(user *models.User) (string, error) {
	return utils.GenerateJWT(*user, []byte(initializers.Cfg.JWTSecret), initializers.Cfg.JWTTTL)
}

// Register creates a shopper account. Admin rights are never taken from the
// request; an existing admin grants them.
func Register(ctx *gin.Context) {
	var registerData models.RegisterData
	if err := ctx.ShouldBindJSON(&registerData); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidUserData)
		return
	}

	hashedPassword, err := utils.HashPassword(registerData.Password)
	if err != nil {
		log.WithError(err).Error("Password hashing error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	user := models.User{
		Name:     strings.TrimSpace(registerData.Name),
		Email:    strings.ToLower(strings.TrimSpace(registerData.Email)),
		Password: hashedPassword,
	}

	users := repositories.NewUserRepository(initializers.DB)
	if err := users.Create(ctx.Request.Context(), &user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
			return
		}
		log.WithError(err).Error("User creation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	token, err := generateJWT(&user)
	if err != nil {
		log.WithError(err).Error("JWT generation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}

	log.WithField("user_id", user.ID).Info("User registered")
	sendJSONResponse(ctx, http.StatusCreated, authResponse(&user, token))
}

func Login(ctx *gin.Context) {
	var loginData models.LoginData
	if err := ctx.ShouldBindJSON(&loginData); err != nil {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	users := repositories.NewUserRepository(initializers.DB)
	user, err := users.FindByEmail(ctx.Request.Context(), strings.ToLower(strings.TrimSpace(loginData.Email)))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.WithError(err).Error("User lookup error")
			sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
			return
		}
		sendErrorResponse(ctx, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	if err := utils.ComparePasswords(user.Password, loginData.Password); err != nil {
		sendErrorResponse(ctx, http.StatusUnauthorized, msgInvalidCredentials)
		return
	}

	token, err := generateJWT(user)
	if err != nil {
		log.WithError(err).Error("JWT generation error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgFailedToGenerateToken)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, authResponse(user, token))
}
