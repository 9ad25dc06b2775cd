package coupons

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/lmorales-dev/shopstream-backend/pkg/db"
	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
)

const (
	giftCodePrefix      = "GIFT"
	giftCodeRandomChars = 9
	giftDiscountPercent = 10
	giftValidity        = 30 * 24 * time.Hour
)

var codeAlphabet = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// Service exposes coupon operations.
type Service interface {
	GetActive(ctx context.Context, userID uuid.UUID) (*CouponDTO, error)
	Validate(ctx context.Context, code string, userID uuid.UUID) (*CouponDTO, error)
	IssueGiftCoupon(ctx context.Context, userID uuid.UUID) (*CouponDTO, error)
	Deactivate(ctx context.Context, code string, userID uuid.UUID) error
}

type couponStore interface {
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*models.Coupon, error)
	FindByCodeAndUser(ctx context.Context, code string, userID uuid.UUID) (*models.Coupon, error)
	Create(ctx context.Context, coupon *models.Coupon) (*models.Coupon, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
	Deactivate(ctx context.Context, code string, userID uuid.UUID) error
}

type service struct {
	repo couponStore
	now  func() time.Time
}

// NewService constructs the coupons service.
func NewService(repo couponStore) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// GetActive returns the user's current active coupon, or NotFound.
func (s *service) GetActive(ctx context.Context, userID uuid.UUID) (*CouponDTO, error) {
	coupon, err := s.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active coupon")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load active coupon")
	}
	return FromModel(coupon), nil
}

// Validate checks a coupon code for the user. An expired coupon is
// deactivated as a side effect and then rejected.
func (s *service) Validate(ctx context.Context, code string, userID uuid.UUID) (*CouponDTO, error) {
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code must not be empty")
	}

	coupon, err := s.repo.FindByCodeAndUser(ctx, code, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load coupon")
	}
	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}

	if coupon.ExpiresAt.Before(s.now()) {
		if err := s.repo.Deactivate(ctx, code, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate expired coupon")
		}
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon expired")
	}

	return FromModel(coupon), nil
}

// IssueGiftCoupon replaces any existing coupon for the user with a fresh
// 10% gift coupon valid for 30 days.
func (s *service) IssueGiftCoupon(ctx context.Context, userID uuid.UUID) (*CouponDTO, error) {
	if err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete previous coupons")
	}

	code, err := generateGiftCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating coupon code")
	}

	coupon := &models.Coupon{
		Code:               code,
		UserID:             userID,
		DiscountPercentage: giftDiscountPercent,
		ExpiresAt:          s.now().Add(giftValidity),
		IsActive:           true,
	}
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert coupon")
	}
	return FromModel(created), nil
}

// Deactivate marks the coupon inactive. Safe to call repeatedly and for
// codes that no longer exist.
func (s *service) Deactivate(ctx context.Context, code string, userID uuid.UUID) error {
	if code == "" {
		return nil
	}
	if err := s.repo.Deactivate(ctx, code, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate coupon")
	}
	return nil
}

func generateGiftCode() (string, error) {
	out := make([]rune, giftCodeRandomChars)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return giftCodePrefix + string(out), nil
}
