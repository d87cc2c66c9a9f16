package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CategoryBooks             = "Books (Academic Focus)"
	CategoryStationery        = "Stationery"
	CategoryElectronics       = "Electronics"
	CategoryStudentEssentials = "Student Essentials"
)

// Categories is the closed set of catalog categories.
var Categories = []string{
	CategoryBooks,
	CategoryStationery,
	CategoryElectronics,
	CategoryStudentEssentials,
}

// IsValidCategory reports whether category is one of Categories, ignoring surrounding spaces.
func IsValidCategory(category string) bool {
	category = strings.TrimSpace(category)
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Product struct {
	ID           string         `gorm:"primaryKey;size:36" json:"_id"`
	Name         string         `gorm:"size:200;not null" json:"name"`
	Image        string         `gorm:"size:500" json:"image"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"size:50;index;not null" json:"category"`
	Price        float64        `gorm:"not null;default:0" json:"price"`
	CountInStock int            `gorm:"not null;default:0;check:count_in_stock >= 0" json:"countInStock"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
