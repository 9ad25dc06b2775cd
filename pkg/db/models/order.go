package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is the immutable history record written once per confirmed payment
// session. stripe_session_id intentionally carries no uniqueness constraint:
// a second completion of the same session writes a second row.
type Order struct {
	ID              uuid.UUID   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID   `gorm:"column:user_id;type:uuid;not null;index"`
	TotalCents      int64       `gorm:"column:total_cents;not null"`
	StripeSessionID string      `gorm:"column:stripe_session_id;not null"`
	Items           []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time   `gorm:"column:created_at;autoCreateTime"`
}

// OrderItem snapshots one purchased product line, including the seller's
// identity and display name at completion time so later renames or product
// deletions do not corrupt history.
type OrderItem struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	Quantity   int       `gorm:"column:quantity;not null"`
	PriceCents int64     `gorm:"column:price_cents;not null"`
	SellerID   uuid.UUID `gorm:"column:seller_id;type:uuid;not null;index"`
	SellerName string    `gorm:"column:seller_name;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
