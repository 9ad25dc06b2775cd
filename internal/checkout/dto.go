package checkout

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProductInput is one client-supplied line at session creation time. Price
// is the display amount in dollars; the client's view is trusted here and
// re-verified against the gateway total at completion.
type ProductInput struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Price    string    `json:"price"`
	Quantity int       `json:"quantity"`
	Image    string    `json:"image,omitempty"`
}

// CreateSessionInput is the checkout-session request payload.
type CreateSessionInput struct {
	Products   []ProductInput `json:"products"`
	CouponCode string         `json:"coupon_code"`
}

// SessionDTO is the checkout-session response. Key names are part of the
// client contract.
type SessionDTO struct {
	ID          string `json:"id"`
	TotalAmount string `json:"totalAmount"`
}

// productMeta is the per-line metadata round-tripped through Stripe. It
// must deserialize to exactly what was serialized at session creation.
type productMeta struct {
	ID       uuid.UUID   `json:"id"`
	Quantity int         `json:"quantity"`
	Price    json.Number `json:"price"`
}

const (
	metadataUserID     = "userId"
	metadataCouponCode = "couponCode"
	metadataProducts   = "products"
)

// BillUser identifies the purchasing customer on a bill.
type BillUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BillProductDTO is one snapshot line on the completion bill.
type BillProductDTO struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Price      string    `json:"price"`
	SellerID   uuid.UUID `json:"seller_id"`
	SellerName string    `json:"seller_name"`
}

// BillDTO is the full bill returned from checkout completion.
type BillDTO struct {
	OrderID     uuid.UUID        `json:"order_id"`
	User        BillUser         `json:"user"`
	Products    []BillProductDTO `json:"products"`
	TotalAmount string           `json:"total_amount"`
	CreatedAt   time.Time        `json:"created_at"`
}

// CompleteResult is the checkout-success response body.
type CompleteResult struct {
	Message string  `json:"message"`
	Bill    BillDTO `json:"bill"`
}
