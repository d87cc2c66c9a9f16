package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/Kariqs/campus-store-api/middlewares"
	"github.com/Kariqs/campus-store-api/repositories"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type userUpdate struct {
	Name    *string `json:"name"`
	Email   *string `json:"email" binding:"omitempty,email"`
	IsAdmin *bool   `json:"isAdmin"`
}

func GetUsers(ctx *gin.Context) {
	users, err := repositories.NewUserRepository(initializers.DB).FindAll(ctx.Request.Context())
	if err != nil {
		log.WithError(err).Error("Error fetching users")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Error fetching users")
		return
	}
	sendJSONResponse(ctx, http.StatusOK, users)
}

func UpdateUser(ctx *gin.Context) {
	var update userUpdate
	if err := ctx.ShouldBindJSON(&update); err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, msgInvalidUserData)
		return
	}

	users := repositories.NewUserRepository(initializers.DB)
	user, err := users.FindByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgUserNotFound)
			return
		}
		log.WithError(err).Error("User lookup error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	if update.Name != nil {
		if name := strings.TrimSpace(*update.Name); name != "" {
			user.Name = name
		}
	}
	if update.Email != nil {
		if email := strings.ToLower(strings.TrimSpace(*update.Email)); email != "" {
			user.Email = email
		}
	}
	if update.IsAdmin != nil {
		user.IsAdmin = *update.IsAdmin
	}

	if err := users.Save(ctx.Request.Context(), user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			sendErrorResponse(ctx, http.StatusBadRequest, msgUserAlreadyExists)
			return
		}
		log.WithError(err).WithField("user_id", user.ID).Error("User update error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, user)
}

func DeleteUser(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == middlewares.UserID(ctx) {
		sendErrorResponse(ctx, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	err := repositories.NewUserRepository(initializers.DB).Delete(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			sendErrorResponse(ctx, http.StatusNotFound, msgUserNotFound)
			return
		}
		log.WithError(err).WithField("user_id", id).Error("User delete error")
		sendErrorResponse(ctx, http.StatusInternalServerError, msgInternalServerError)
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{"message": "User removed"})
}
