package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/db"
	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
)

// Service exposes cart operations for the authenticated user.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]LineDTO, error)
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]LineDTO, error)
	UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]LineDTO, error)
	Remove(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) ([]LineDTO, error)
}

type cartStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Line, error)
	FindLine(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	ClearUser(ctx context.Context, userID uuid.UUID) error
}

type productFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type service struct {
	repo     cartStore
	products productFinder
}

// NewService constructs the cart service.
func NewService(repo cartStore, products productFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder required")
	}
	return &service{repo: repo, products: products}, nil
}

// List returns the user's cart.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]LineDTO, error) {
	lines, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list cart")
	}
	return toDTOs(lines), nil
}

// Add puts a product in the cart. An existing line is incremented by the
// requested quantity instead of duplicated.
func (s *service) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]LineDTO, error) {
	if quantity < 1 {
		quantity = 1
	}

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	existing, err := s.repo.FindLine(ctx, userID, productID)
	switch {
	case err == nil:
		if err := s.repo.UpdateQuantity(ctx, existing.ID, existing.Quantity+quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment cart line")
		}
	case db.IsNotFound(err):
		item := &models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
		if _, err := s.repo.Create(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cart line")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart line")
	}

	return s.List(ctx, userID)
}

// UpdateQuantity sets the line quantity for a product. Zero removes the
// line entirely.
func (s *service) UpdateQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) ([]LineDTO, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative")
	}

	line, err := s.repo.FindLine(ctx, userID, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart line")
	}

	if quantity == 0 {
		if err := s.repo.DeleteLine(ctx, line.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart line")
		}
		return s.List(ctx, userID)
	}

	if err := s.repo.UpdateQuantity(ctx, line.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart line")
	}
	return s.List(ctx, userID)
}

// Remove deletes one product's line when productID is set, otherwise
// clears the whole cart.
func (s *service) Remove(ctx context.Context, userID uuid.UUID, productID *uuid.UUID) ([]LineDTO, error) {
	if productID == nil {
		if err := s.repo.ClearUser(ctx, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
		}
		return s.List(ctx, userID)
	}

	line, err := s.repo.FindLine(ctx, userID, *productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart line")
	}
	if err := s.repo.DeleteLine(ctx, line.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart line")
	}
	return s.List(ctx, userID)
}
