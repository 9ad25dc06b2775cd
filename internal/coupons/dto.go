package coupons

import (
	"time"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
)

// CouponDTO is the transport shape for a user's discount coupon.
type CouponDTO struct {
	ID                 uuid.UUID `json:"id"`
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discount_percentage"`
	ExpiresAt          time.Time `json:"expires_at"`
	IsActive           bool      `json:"is_active"`
	CreatedAt          time.Time `json:"created_at"`
}

func FromModel(c *models.Coupon) *CouponDTO {
	if c == nil {
		return nil
	}
	return &CouponDTO{
		ID:                 c.ID,
		Code:               c.Code,
		DiscountPercentage: c.DiscountPercentage,
		ExpiresAt:          c.ExpiresAt,
		IsActive:           c.IsActive,
		CreatedAt:          c.CreatedAt,
	}
}
