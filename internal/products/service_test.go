package products

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	"github.com/lmorales-dev/shopstream-backend/pkg/enums"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	redisclient "github.com/lmorales-dev/shopstream-backend/pkg/redis"
)

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
	deleted  []uuid.UUID
}

func newStubCatalog(products ...*models.Product) *stubCatalog {
	s := &stubCatalog{products: map[uuid.UUID]*models.Product{}}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *stubCatalog) Create(_ context.Context, p *models.Product) (*models.Product, error) {
	p.ID = uuid.New()
	s.products[p.ID] = p
	return p, nil
}

func (s *stubCatalog) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (s *stubCatalog) ListAll(context.Context) ([]models.Product, error) {
	return s.all(), nil
}

func (s *stubCatalog) ListByCreator(_ context.Context, userID uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.all() {
		if p.CreatedBy == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubCatalog) ListFeatured(context.Context) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.all() {
		if p.IsFeatured {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubCatalog) ListByCategory(_ context.Context, category string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.all() {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubCatalog) ListRandom(_ context.Context, limit int) ([]models.Product, error) {
	all := s.all()
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *stubCatalog) SetFeatured(_ context.Context, id uuid.UUID, featured bool) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	p.IsFeatured = featured
	return p, nil
}

func (s *stubCatalog) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.products, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubCatalog) all() []models.Product {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out
}

type stubCache struct {
	values map[string]string
	dels   []string
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string]string{}}
}

func (s *stubCache) Get(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", redisclient.Nil
	}
	return v, nil
}

func (s *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *stubCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.values, k)
		s.dels = append(s.dels, k)
	}
	return nil
}

func (s *stubCache) CacheKey(name string) string { return "cache:" + name }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "products-test", Output: os.Stderr})
}

func testProduct(name string, cents int, featured bool, creator uuid.UUID) *models.Product {
	return &models.Product{
		ID:         uuid.New(),
		Name:       name,
		PriceCents: cents,
		Category:   "apparel",
		IsFeatured: featured,
		CreatedBy:  creator,
	}
}

func TestListScopesSellersToOwnProducts(t *testing.T) {
	seller := uuid.New()
	other := uuid.New()
	catalog := newStubCatalog(
		testProduct("Mine", 1000, false, seller),
		testProduct("Theirs", 2000, false, other),
	)
	svc, err := NewService(catalog, newStubCache(), testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	own, err := svc.List(context.Background(), seller, enums.UserRoleSeller)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(own) != 1 || own[0].Name != "Mine" {
		t.Fatalf("seller must only see own products, got %+v", own)
	}

	all, err := svc.List(context.Background(), seller, enums.UserRoleAdmin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("admin must see everything, got %d", len(all))
	}
}

func TestFeaturedCachesAndInvalidatesOnToggle(t *testing.T) {
	p := testProduct("Hat", 1500, true, uuid.New())
	catalog := newStubCatalog(p)
	cache := newStubCache()
	svc, err := NewService(catalog, cache, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	first, err := svc.Featured(ctx)
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 featured product, got %d", len(first))
	}
	if _, ok := cache.values["cache:featured_products"]; !ok {
		t.Fatal("expected cache to be populated")
	}

	// Serve from cache even if the row changes underneath.
	p.Name = "Renamed"
	second, err := svc.Featured(ctx)
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if second[0].Name != "Hat" {
		t.Fatalf("expected cached name, got %q", second[0].Name)
	}

	if _, err := svc.ToggleFeatured(ctx, p.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, ok := cache.values["cache:featured_products"]; ok {
		t.Fatal("expected cache invalidation on toggle")
	}
}

func TestFeaturedRecoversFromCorruptCacheEntry(t *testing.T) {
	catalog := newStubCatalog(testProduct("Hat", 1500, true, uuid.New()))
	cache := newStubCache()
	cache.values["cache:featured_products"] = "{not json"
	svc, err := NewService(catalog, cache, testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dtos, err := svc.Featured(context.Background())
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if len(dtos) != 1 {
		t.Fatalf("expected DB fallback, got %d products", len(dtos))
	}

	var rewritten []ProductDTO
	if err := json.Unmarshal([]byte(cache.values["cache:featured_products"]), &rewritten); err != nil {
		t.Fatalf("expected cache rewrite with valid JSON: %v", err)
	}
}

func TestCreateParsesDecimalPrice(t *testing.T) {
	catalog := newStubCatalog()
	svc, err := NewService(catalog, newStubCache(), testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), uuid.New(), CreateProductInput{
		Name:     "Shirt",
		Price:    "19.99",
		Category: "apparel",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Price != "19.99" {
		t.Fatalf("unexpected price: %s", dto.Price)
	}

	stored := catalog.products[dto.ID]
	if stored.PriceCents != 1999 {
		t.Fatalf("expected 1999 cents, got %d", stored.PriceCents)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, err := NewService(newStubCatalog(), newStubCache(), testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Create(context.Background(), uuid.New(), CreateProductInput{Name: "", Price: "10"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), uuid.New(), CreateProductInput{Name: "X", Price: "-1"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
	if _, err := svc.Create(context.Background(), uuid.New(), CreateProductInput{Name: "X", Price: "0"}); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for zero price, got %v", err)
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	owner := uuid.New()
	intruder := uuid.New()
	p := testProduct("Shirt", 1999, false, owner)
	catalog := newStubCatalog(p)
	svc, err := NewService(catalog, newStubCache(), testLogger())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()

	if err := svc.Delete(ctx, intruder, enums.UserRoleSeller, p.ID); !pkgerrors.Is(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign seller, got %v", err)
	}
	if err := svc.Delete(ctx, intruder, enums.UserRoleAdmin, p.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if len(catalog.deleted) != 1 {
		t.Fatalf("expected one deletion, got %d", len(catalog.deleted))
	}

	if err := svc.Delete(ctx, owner, enums.UserRoleSeller, p.ID); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found after deletion, got %v", err)
	}
}
