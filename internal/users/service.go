package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/db"
	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
	"github.com/lmorales-dev/shopstream-backend/pkg/money"
)

// Service exposes account profile operations.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	UpdateName(ctx context.Context, userID uuid.UUID, name string) (*UserDTO, error)
}

// ProfileDTO is the aggregated account view. Sellers and admins see the
// orders containing their products plus their bills; customers see their
// own purchase history.
type ProfileDTO struct {
	User   UserDTO           `json:"user"`
	Orders []OrderSummaryDTO `json:"orders"`
	Bills  []BillSummaryDTO  `json:"bills,omitempty"`
}

// OrderSummaryDTO is one order in the profile view.
type OrderSummaryDTO struct {
	ID          uuid.UUID        `json:"id"`
	TotalAmount string           `json:"total_amount"`
	Items       []OrderedItemDTO `json:"items"`
	CreatedAt   time.Time        `json:"created_at"`
}

// OrderedItemDTO is one snapshot line inside a profile order.
type OrderedItemDTO struct {
	ProductID  uuid.UUID `json:"product_id"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Price      string    `json:"price"`
	SellerID   uuid.UUID `json:"seller_id"`
	SellerName string    `json:"seller_name"`
}

// BillSummaryDTO is one per-seller bill in the profile view.
type BillSummaryDTO struct {
	ID          uuid.UUID        `json:"id"`
	OrderID     uuid.UUID        `json:"order_id"`
	TotalAmount string           `json:"total_amount"`
	Products    []OrderedItemDTO `json:"products"`
	CreatedAt   time.Time        `json:"created_at"`
}

type userStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateName(ctx context.Context, id uuid.UUID, name string) error
}

type orderReader interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListContainingSeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
}

type billReader interface {
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.SellerBill, error)
}

type service struct {
	repo   userStore
	orders orderReader
	bills  billReader
}

// NewService constructs the users service.
func NewService(repo userStore, orders orderReader, bills billReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if bills == nil {
		return nil, fmt.Errorf("bill reader required")
	}
	return &service{repo: repo, orders: orders, bills: bills}, nil
}

// Get loads the bare account record.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}
	return FromModel(user), nil
}

// Profile aggregates the account record with order and bill history.
func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	profile := &ProfileDTO{User: *FromModel(user)}

	if user.Role.CanSell() {
		orders, err := s.orders.ListContainingSeller(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list seller orders")
		}
		profile.Orders = toOrderSummaries(orders)

		bills, err := s.bills.ListBySeller(ctx, userID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list seller bills")
		}
		profile.Bills = toBillSummaries(bills)
		return profile, nil
	}

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list orders")
	}
	profile.Orders = toOrderSummaries(orders)
	return profile, nil
}

// UpdateName renames the account. The name must be non-empty after trimming.
func (s *service) UpdateName(ctx context.Context, userID uuid.UUID, name string) (*UserDTO, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name must not be empty")
	}

	if err := s.repo.UpdateName(ctx, userID, trimmed); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update name")
	}
	return s.Get(ctx, userID)
}

func toOrderSummaries(orders []models.Order) []OrderSummaryDTO {
	out := make([]OrderSummaryDTO, 0, len(orders))
	for _, order := range orders {
		items := make([]OrderedItemDTO, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, OrderedItemDTO{
				ProductID:  item.ProductID,
				Name:       item.Name,
				Quantity:   item.Quantity,
				Price:      money.FormatCents(item.PriceCents),
				SellerID:   item.SellerID,
				SellerName: item.SellerName,
			})
		}
		out = append(out, OrderSummaryDTO{
			ID:          order.ID,
			TotalAmount: money.FormatCents(order.TotalCents),
			Items:       items,
			CreatedAt:   order.CreatedAt,
		})
	}
	return out
}

func toBillSummaries(bills []models.SellerBill) []BillSummaryDTO {
	out := make([]BillSummaryDTO, 0, len(bills))
	for _, bill := range bills {
		products := make([]OrderedItemDTO, 0, len(bill.Products))
		for _, line := range bill.Products {
			products = append(products, OrderedItemDTO{
				ProductID:  line.ProductID,
				Name:       line.Name,
				Quantity:   line.Quantity,
				Price:      money.FormatCents(line.PriceCents),
				SellerID:   line.SellerID,
				SellerName: line.SellerName,
			})
		}
		out = append(out, BillSummaryDTO{
			ID:          bill.ID,
			OrderID:     bill.OrderID,
			TotalAmount: money.FormatCents(bill.TotalCents),
			Products:    products,
			CreatedAt:   bill.CreatedAt,
		})
	}
	return out
}
