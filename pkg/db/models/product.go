package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog listing owned by a seller or admin.
type Product struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	Image      string    `gorm:"column:image;not null;default:''"`
	Category   string    `gorm:"column:category;not null;default:''"`
	IsFeatured bool      `gorm:"column:is_featured;not null;default:false"`
	CreatedBy  uuid.UUID `gorm:"column:created_by;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
