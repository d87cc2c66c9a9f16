package controllers

import (
	"errors"
	"net/http"

	"github.com/Kariqs/campus-store-api/initializers"
	"github.com/Kariqs/campus-store-api/storage"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func UploadImage(ctx *gin.Context) {
	file, err := ctx.FormFile("image")
	if err != nil {
		sendErrorResponse(ctx, http.StatusBadRequest, "No file uploaded")
		return
	}

	if err := storage.ValidateImage(file); err != nil {
		switch {
		case errors.Is(err, storage.ErrTooLarge):
			sendErrorResponse(ctx, http.StatusBadRequest, "Image must be 5MB or smaller")
		default:
			sendErrorResponse(ctx, http.StatusBadRequest, "Images only! (jpeg, jpg, png, gif)")
		}
		return
	}

	f, err := file.Open()
	if err != nil {
		log.WithError(err).WithField("file", file.Filename).Error("Error opening uploaded file")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to upload image")
		return
	}
	defer f.Close()

	url, err := initializers.Uploader.Upload(ctx.Request.Context(), storage.UniqueName(file.Filename), file.Header.Get("Content-Type"), f)
	if err != nil {
		log.WithError(err).WithField("file", file.Filename).Error("Error uploading file")
		sendErrorResponse(ctx, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	sendJSONResponse(ctx, http.StatusOK, gin.H{
		"message": "Image uploaded successfully",
		"image":   url,
	})
}
