package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/money"
)

// LineDTO is one cart line joined with its product snapshot.
type LineDTO struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Image     string    `json:"image"`
	Category  string    `json:"category"`
	Quantity  int       `json:"quantity"`
	Subtotal  string    `json:"subtotal"`
	CreatedAt time.Time `json:"created_at"`
}

// Line is the repo-level join row between cart_items and products.
type Line struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	Name       string
	PriceCents int64
	Image      string
	Category   string
	Quantity   int
	CreatedAt  time.Time
}

func toDTO(line Line) LineDTO {
	return LineDTO{
		ID:        line.ID,
		ProductID: line.ProductID,
		Name:      line.Name,
		Price:     money.FormatCents(line.PriceCents),
		Image:     line.Image,
		Category:  line.Category,
		Quantity:  line.Quantity,
		Subtotal:  money.FormatCents(line.PriceCents * int64(line.Quantity)),
		CreatedAt: line.CreatedAt,
	}
}

func toDTOs(lines []Line) []LineDTO {
	out := make([]LineDTO, 0, len(lines))
	for _, line := range lines {
		out = append(out, toDTO(line))
	}
	return out
}
