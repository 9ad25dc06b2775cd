package models

import (
	"time"

	"github.com/google/uuid"
)

// BillLine is the compact product view embedded in a seller bill.
type BillLine struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"price_cents"`
	SellerID   uuid.UUID `json:"seller_id"`
	SellerName string    `json:"seller_name"`
}

// SellerBill is the denormalized per-seller view of an order, holding only
// that seller's lines. Not a source of truth: derivable from orders.
type SellerBill struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID   uuid.UUID  `gorm:"column:seller_id;type:uuid;not null;index"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	TotalCents int64      `gorm:"column:total_cents;not null"`
	Products   []BillLine `gorm:"column:products;type:jsonb;serializer:json"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
