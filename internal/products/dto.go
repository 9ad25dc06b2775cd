package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	"github.com/lmorales-dev/shopstream-backend/pkg/money"
)

// ProductDTO is the transport shape for catalog listings. Price is a fixed
// two-decimal dollar string.
type ProductDTO struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Price      string    `json:"price"`
	Image      string    `json:"image"`
	Category   string    `json:"category"`
	IsFeatured bool      `json:"is_featured"`
	CreatedBy  uuid.UUID `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateProductInput holds the validated payload to create a listing.
type CreateProductInput struct {
	Name     string
	Price    string
	Image    string
	Category string
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	return &ProductDTO{
		ID:         p.ID,
		Name:       p.Name,
		Price:      money.FormatCents(int64(p.PriceCents)),
		Image:      p.Image,
		Category:   p.Category,
		IsFeatured: p.IsFeatured,
		CreatedBy:  p.CreatedBy,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func fromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}
