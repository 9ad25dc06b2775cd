package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a single-use-per-user percentage discount. At most one row per
// user, enforced by delete-then-create at issuance time.
type Coupon struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string    `gorm:"column:code;not null"`
	UserID             uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	DiscountPercentage int       `gorm:"column:discount_percentage;not null"`
	ExpiresAt          time.Time `gorm:"column:expires_at;not null"`
	IsActive           bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
