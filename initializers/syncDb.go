package initializers

import (
	"github.com/Kariqs/campus-store-api/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func SyncDatabase() {
	if err := Migrate(DB); err != nil {
		log.WithError(err).Fatal("Failed to sync database")
	}
	log.Info("Database synced successfully.")
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.User{}, &models.Product{}, &models.Order{}, &models.Cart{}, &models.CartItem{})
}
