package products

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/db"
	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	"github.com/lmorales-dev/shopstream-backend/pkg/enums"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	"github.com/lmorales-dev/shopstream-backend/pkg/money"
)

const (
	recommendationCount = 4
	featuredCacheTTL    = 5 * time.Minute
)

// Service exposes catalog management operations.
type Service interface {
	List(ctx context.Context, actorID uuid.UUID, role enums.UserRole) ([]ProductDTO, error)
	Featured(ctx context.Context) ([]ProductDTO, error)
	ByCategory(ctx context.Context, category string) ([]ProductDTO, error)
	Recommendations(ctx context.Context) ([]ProductDTO, error)
	Create(ctx context.Context, actorID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	ToggleFeatured(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	Delete(ctx context.Context, actorID uuid.UUID, role enums.UserRole, productID uuid.UUID) error
}

type catalogStore interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Product, error)
	ListFeatured(ctx context.Context) ([]models.Product, error)
	ListByCategory(ctx context.Context, category string) ([]models.Product, error)
	ListRandom(ctx context.Context, limit int) ([]models.Product, error)
	SetFeatured(ctx context.Context, id uuid.UUID, featured bool) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(name string) string
}

type service struct {
	repo  catalogStore
	cache cacheStore
	logg  *logger.Logger
}

// NewService constructs the catalog service.
func NewService(repo catalogStore, cache cacheStore, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, cache: cache, logg: logg}, nil
}

// List returns the catalog visible to the actor. Admins see everything,
// sellers see only their own listings.
func (s *service) List(ctx context.Context, actorID uuid.UUID, role enums.UserRole) ([]ProductDTO, error) {
	var (
		rows []models.Product
		err  error
	)
	if role == enums.UserRoleAdmin {
		rows, err = s.repo.ListAll(ctx)
	} else {
		rows, err = s.repo.ListByCreator(ctx, actorID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products")
	}
	return fromModels(rows), nil
}

// Featured returns the featured listings, served from Redis when warm.
func (s *service) Featured(ctx context.Context) ([]ProductDTO, error) {
	key := s.cache.CacheKey("featured_products")

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var dtos []ProductDTO
		if err := json.Unmarshal([]byte(cached), &dtos); err == nil {
			return dtos, nil
		}
		// Unreadable cache entry: fall through to the DB and rewrite it.
		s.logg.Warn(ctx, "dropping unreadable featured products cache entry")
	}

	rows, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list featured products")
	}
	dtos := fromModels(rows)

	if payload, err := json.Marshal(dtos); err == nil {
		if err := s.cache.Set(ctx, key, string(payload), featuredCacheTTL); err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("caching featured products failed: %v", err))
		}
	}
	return dtos, nil
}

// ByCategory returns the listings in the given category.
func (s *service) ByCategory(ctx context.Context, category string) ([]ProductDTO, error) {
	trimmed := strings.TrimSpace(category)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must not be empty")
	}

	rows, err := s.repo.ListByCategory(ctx, trimmed)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list products by category")
	}
	return fromModels(rows), nil
}

// Recommendations returns a random sample of listings.
func (s *service) Recommendations(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.repo.ListRandom(ctx, recommendationCount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list random products")
	}
	return fromModels(rows), nil
}

// Create adds a listing owned by the actor.
func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name must not be empty")
	}

	amount, err := money.ParseAmount(input.Price)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be a positive decimal amount")
	}

	product := &models.Product{
		Name:       name,
		PriceCents: int(money.CentsFromAmount(amount)),
		Image:      strings.TrimSpace(input.Image),
		Category:   strings.TrimSpace(input.Category),
		CreatedBy:  actorID,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	return FromModel(created), nil
}

// ToggleFeatured flips the featured flag and invalidates the cache.
func (s *service) ToggleFeatured(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	updated, err := s.repo.SetFeatured(ctx, productID, !product.IsFeatured)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: toggle featured")
	}

	s.invalidateFeatured(ctx)
	return FromModel(updated), nil
}

// Delete removes a listing. Admins may delete any listing, sellers only
// their own.
func (s *service) Delete(ctx context.Context, actorID uuid.UUID, role enums.UserRole, productID uuid.UUID) error {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	if role != enums.UserRoleAdmin && product.CreatedBy != actorID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete another seller's product")
	}

	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}

	if product.IsFeatured {
		s.invalidateFeatured(ctx)
	}
	return nil
}

func (s *service) invalidateFeatured(ctx context.Context) {
	if err := s.cache.Del(ctx, s.cache.CacheKey("featured_products")); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("invalidating featured products cache failed: %v", err))
	}
}
