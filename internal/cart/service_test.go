package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
)

type stubCartStore struct {
	lines    map[uuid.UUID]*models.CartItem // line id -> line
	products map[uuid.UUID]*models.Product
}

func newStubCartStore(products ...*models.Product) *stubCartStore {
	s := &stubCartStore{
		lines:    map[uuid.UUID]*models.CartItem{},
		products: map[uuid.UUID]*models.Product{},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func (s *stubCartStore) ListByUser(_ context.Context, userID uuid.UUID) ([]Line, error) {
	var out []Line
	for _, item := range s.lines {
		if item.UserID != userID {
			continue
		}
		p := s.products[item.ProductID]
		out = append(out, Line{
			ID:         item.ID,
			ProductID:  item.ProductID,
			Name:       p.Name,
			PriceCents: int64(p.PriceCents),
			Image:      p.Image,
			Category:   p.Category,
			Quantity:   item.Quantity,
		})
	}
	return out, nil
}

func (s *stubCartStore) FindLine(_ context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	for _, item := range s.lines {
		if item.UserID == userID && item.ProductID == productID {
			return item, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCartStore) Create(_ context.Context, item *models.CartItem) (*models.CartItem, error) {
	item.ID = uuid.New()
	s.lines[item.ID] = item
	return item, nil
}

func (s *stubCartStore) UpdateQuantity(_ context.Context, lineID uuid.UUID, quantity int) error {
	line, ok := s.lines[lineID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	line.Quantity = quantity
	return nil
}

func (s *stubCartStore) DeleteLine(_ context.Context, lineID uuid.UUID) error {
	delete(s.lines, lineID)
	return nil
}

func (s *stubCartStore) ClearUser(_ context.Context, userID uuid.UUID) error {
	for id, item := range s.lines {
		if item.UserID == userID {
			delete(s.lines, id)
		}
	}
	return nil
}

func (s *stubCartStore) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func shirt() *models.Product {
	return &models.Product{ID: uuid.New(), Name: "Shirt", PriceCents: 1999, Category: "apparel"}
}

func TestAddCreatesThenIncrementsLine(t *testing.T) {
	p := shirt()
	store := newStubCartStore(p)
	svc, err := NewService(store, store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	user := uuid.New()

	lines, err := svc.Add(ctx, user, p.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 1 {
		t.Fatalf("unexpected cart after first add: %+v", lines)
	}

	lines, err = svc.Add(ctx, user, p.ID, 1)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(lines) != 1 || lines[0].Quantity != 2 {
		t.Fatalf("expected single incremented line, got %+v", lines)
	}
	if lines[0].Subtotal != "39.98" {
		t.Fatalf("unexpected subtotal: %s", lines[0].Subtotal)
	}
}

func TestAddRejectsUnknownProduct(t *testing.T) {
	store := newStubCartStore()
	svc, err := NewService(store, store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if _, err := svc.Add(context.Background(), uuid.New(), uuid.New(), 1); !pkgerrors.Is(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	p := shirt()
	store := newStubCartStore(p)
	svc, err := NewService(store, store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.Add(ctx, user, p.ID, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines, err := svc.UpdateQuantity(ctx, user, p.ID, 0)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", lines)
	}
}

func TestUpdateQuantitySetsValue(t *testing.T) {
	p := shirt()
	store := newStubCartStore(p)
	svc, err := NewService(store, store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.Add(ctx, user, p.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	lines, err := svc.UpdateQuantity(ctx, user, p.ID, 5)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if lines[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", lines[0].Quantity)
	}

	if _, err := svc.UpdateQuantity(ctx, user, p.ID, -1); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveClearsCartOrSingleLine(t *testing.T) {
	p1, p2 := shirt(), shirt()
	p2.Name = "Hat"
	store := newStubCartStore(p1, p2)
	svc, err := NewService(store, store)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	user := uuid.New()

	if _, err := svc.Add(ctx, user, p1.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add(ctx, user, p2.ID, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	lines, err := svc.Remove(ctx, user, &p1.ID)
	if err != nil {
		t.Fatalf("remove line: %v", err)
	}
	if len(lines) != 1 || lines[0].ProductID != p2.ID {
		t.Fatalf("expected only second product, got %+v", lines)
	}

	lines, err = svc.Remove(ctx, user, nil)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected empty cart, got %+v", lines)
	}
}
