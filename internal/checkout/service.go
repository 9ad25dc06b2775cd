package checkout

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/lmorales-dev/shopstream-backend/internal/billing"
	"github.com/lmorales-dev/shopstream-backend/internal/coupons"
	"github.com/lmorales-dev/shopstream-backend/internal/realtime"
	"github.com/lmorales-dev/shopstream-backend/pkg/db"
	"github.com/lmorales-dev/shopstream-backend/pkg/db/models"
	pkgerrors "github.com/lmorales-dev/shopstream-backend/pkg/errors"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	"github.com/lmorales-dev/shopstream-backend/pkg/mailer"
	"github.com/lmorales-dev/shopstream-backend/pkg/money"
)

// giftThresholdCents is the pre-coupon order total that earns the customer
// a fresh gift coupon.
const giftThresholdCents = 20000

// Service drives the two-phase hosted checkout: session creation before
// payment, completion after the gateway redirect.
type Service interface {
	CreateSession(ctx context.Context, userID uuid.UUID, input CreateSessionInput) (*SessionDTO, error)
	CompleteSession(ctx context.Context, sessionID string) (*CompleteResult, error)
}

type couponSource interface {
	FindByCodeAndUser(ctx context.Context, code string, userID uuid.UUID) (*models.Coupon, error)
	Deactivate(ctx context.Context, code string, userID uuid.UUID) error
}

type giftIssuer interface {
	IssueGiftCoupon(ctx context.Context, userID uuid.UUID) (*coupons.CouponDTO, error)
}

type productSource interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type userSource interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

type cartClearer interface {
	ClearUser(ctx context.Context, userID uuid.UUID) error
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
}

type billWriter interface {
	Create(ctx context.Context, bill *models.SellerBill) (*models.SellerBill, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, sellerID uuid.UUID, event string, payload any)
}

// Params collects the checkout service dependencies.
type Params struct {
	Sessions    SessionClient
	Coupons     couponSource
	Gifts       giftIssuer
	Products    productSource
	Users       userSource
	Cart        cartClearer
	Orders      orderWriter
	Bills       billWriter
	Mailer      mailer.Sender
	Publisher   eventPublisher
	Logger      *logger.Logger
	FrontendURL string
}

type service struct {
	p          Params
	successURL string
	cancelURL  string
}

// NewService constructs the checkout service.
func NewService(p Params) (Service, error) {
	switch {
	case p.Sessions == nil:
		return nil, fmt.Errorf("session client required")
	case p.Coupons == nil:
		return nil, fmt.Errorf("coupon source required")
	case p.Gifts == nil:
		return nil, fmt.Errorf("gift issuer required")
	case p.Products == nil:
		return nil, fmt.Errorf("product source required")
	case p.Users == nil:
		return nil, fmt.Errorf("user source required")
	case p.Cart == nil:
		return nil, fmt.Errorf("cart clearer required")
	case p.Orders == nil:
		return nil, fmt.Errorf("order writer required")
	case p.Bills == nil:
		return nil, fmt.Errorf("bill writer required")
	case p.Mailer == nil:
		return nil, fmt.Errorf("mailer required")
	case p.Publisher == nil:
		return nil, fmt.Errorf("event publisher required")
	case p.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case p.FrontendURL == "":
		return nil, fmt.Errorf("frontend url required")
	}

	return &service{
		p:          p,
		successURL: p.FrontendURL + "/purchase-success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:  p.FrontendURL + "/purchase-cancel",
	}, nil
}

// CreateSession validates the client's line items, applies the user's
// active coupon to the reported total, and opens a Stripe hosted session.
// Nothing is persisted; the session metadata carries everything completion
// needs.
func (s *service) CreateSession(ctx context.Context, userID uuid.UUID, input CreateSessionInput) (*SessionDTO, error) {
	if len(input.Products) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "products must not be empty")
	}

	var totalCents int64
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(input.Products))
	metas := make([]productMeta, 0, len(input.Products))

	for _, product := range input.Products {
		if product.Name == "" || product.Price == "" || product.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product data is incomplete")
		}
		amount, err := money.ParseAmount(product.Price)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product price must be a positive decimal amount")
		}

		unitCents := money.CentsFromAmount(amount)
		totalCents += unitCents * int64(product.Quantity)

		item := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(string(stripe.CurrencyUSD)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(product.Name),
				},
				UnitAmount: stripe.Int64(unitCents),
			},
			Quantity: stripe.Int64(int64(product.Quantity)),
		}
		if product.Image != "" {
			item.PriceData.ProductData.Images = stripe.StringSlice([]string{product.Image})
		}
		lineItems = append(lineItems, item)

		metas = append(metas, productMeta{
			ID:       product.ID,
			Quantity: product.Quantity,
			Price:    json.Number(amount.String()),
		})
	}

	preCouponTotal := totalCents

	// An unknown or inactive code is silently ignored; the raw input still
	// travels in metadata for completion-time deactivation.
	if input.CouponCode != "" {
		coupon, err := s.p.Coupons.FindByCodeAndUser(ctx, input.CouponCode, userID)
		switch {
		case err == nil && coupon.IsActive:
			totalCents -= money.DiscountCents(totalCents, coupon.DiscountPercentage)
		case err != nil && !db.IsNotFound(err):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load coupon")
		}
	}

	if preCouponTotal >= giftThresholdCents {
		if _, err := s.p.Gifts.IssueGiftCoupon(ctx, userID); err != nil {
			return nil, err
		}
	}

	metaJSON, err := json.Marshal(metas)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding product metadata")
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(s.successURL),
		CancelURL:          stripe.String(s.cancelURL),
	}
	params.AddMetadata(metadataUserID, userID.String())
	params.AddMetadata(metadataCouponCode, input.CouponCode)
	params.AddMetadata(metadataProducts, string(metaJSON))

	sess, err := s.p.Sessions.Create(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: create checkout session")
	}

	return &SessionDTO{ID: sess.ID, TotalAmount: money.FormatCents(totalCents)}, nil
}

// CompleteSession confirms payment with the gateway and materializes the
// order: coupon deactivation, order snapshot, cart clear, per-seller bill
// fan-out, then best-effort seller notification. Re-running it for the
// same session repeats every write.
func (s *service) CompleteSession(ctx context.Context, sessionID string) (*CompleteResult, error) {
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	sess, err := s.p.Sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe: retrieve checkout session")
	}

	// Gateway truth gate: anything but "paid" writes nothing.
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment not completed")
	}

	userID, err := uuid.Parse(sess.Metadata[metadataUserID])
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session metadata carries no valid user id")
	}

	if code := sess.Metadata[metadataCouponCode]; code != "" {
		if err := s.p.Coupons.Deactivate(ctx, code, userID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate coupon")
		}
	}

	var metas []productMeta
	if err := json.Unmarshal([]byte(sess.Metadata[metadataProducts]), &metas); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session metadata carries no valid product list")
	}

	items, sellers, err := s.buildOrderItems(ctx, metas)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:          userID,
		TotalCents:      sess.AmountTotal,
		StripeSessionID: sessionID,
		Items:           items,
	}
	order, err = s.p.Orders.Create(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
	}

	buyer, err := s.p.Users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("user %s not found", userID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load buyer")
	}
	if err := s.p.Cart.ClearUser(ctx, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}

	bills := billing.BuildSellerBills(order.ID, order.Items)
	for i := range bills {
		if _, err := s.p.Bills.Create(ctx, &bills[i]); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert seller bill")
		}
	}

	s.notifySellersByEmail(ctx, buyer, order, bills, sellers)
	s.publishNewOrderEvents(ctx, buyer, order)

	return &CompleteResult{
		Message: "Payment successful, order created, and coupon deactivated if used.",
		Bill:    buildBillDTO(buyer, order),
	}, nil
}

// buildOrderItems resolves each metadata line against the live catalog and
// snapshots the seller's identity. A missing product or seller is fatal.
func (s *service) buildOrderItems(ctx context.Context, metas []productMeta) ([]models.OrderItem, map[uuid.UUID]models.User, error) {
	productIDs := make([]uuid.UUID, 0, len(metas))
	for _, meta := range metas {
		productIDs = append(productIDs, meta.ID)
	}

	products, err := s.p.Products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load products")
	}

	sellerIDs := make([]uuid.UUID, 0, len(metas))
	for _, meta := range metas {
		product, ok := products[meta.ID]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", meta.ID))
		}
		sellerIDs = append(sellerIDs, product.CreatedBy)
	}

	sellers, err := s.p.Users.FindByIDs(ctx, sellerIDs)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load sellers")
	}

	items := make([]models.OrderItem, 0, len(metas))
	for _, meta := range metas {
		product := products[meta.ID]
		seller, ok := sellers[product.CreatedBy]
		if !ok {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("seller %s not found", product.CreatedBy))
		}

		amount, err := money.ParseAmount(meta.Price.String())
		if err != nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "session metadata carries an invalid price")
		}

		items = append(items, models.OrderItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Quantity:   meta.Quantity,
			PriceCents: money.CentsFromAmount(amount),
			SellerID:   seller.ID,
			SellerName: seller.Name,
		})
	}
	return items, sellers, nil
}

// notifySellersByEmail sends one purchase notice per seller. Failures are
// logged and never fail the completion.
func (s *service) notifySellersByEmail(ctx context.Context, buyer *models.User, order *models.Order, bills []models.SellerBill, sellers map[uuid.UUID]models.User) {
	for _, bill := range bills {
		seller, ok := sellers[bill.SellerID]
		if !ok || seller.Email == "" {
			s.p.Logger.Warn(ctx, fmt.Sprintf("checkout: no email on file for seller %s", bill.SellerID))
			continue
		}

		lines := make([]mailer.PurchaseLine, 0, len(bill.Products))
		for _, line := range bill.Products {
			lines = append(lines, mailer.PurchaseLine{
				Name:     line.Name,
				Quantity: line.Quantity,
				Price:    "$" + money.FormatCents(line.PriceCents),
			})
		}

		notice := mailer.PurchaseNotice{
			SellerName:  seller.Name,
			BuyerName:   fmt.Sprintf("%s (%s)", buyer.Name, buyer.Email),
			OrderID:     order.ID.String(),
			TotalAmount: "$" + money.FormatCents(bill.TotalCents),
			Lines:       lines,
		}
		if err := s.p.Mailer.SendSellerPurchaseNotice(seller.Email, notice); err != nil {
			s.p.Logger.Warn(ctx, fmt.Sprintf("checkout: purchase notice to %s failed: %v", seller.Email, err))
		}
	}
}

// publishNewOrderEvents pushes one fire-and-forget event per purchased
// line toward its seller.
func (s *service) publishNewOrderEvents(ctx context.Context, buyer *models.User, order *models.Order) {
	for _, item := range order.Items {
		s.p.Publisher.Publish(ctx, item.SellerID, realtime.EventNewOrder, realtime.NewOrderEvent{
			Message:     fmt.Sprintf("Your product %q has been purchased.", item.Name),
			OrderID:     order.ID.String(),
			Quantity:    item.Quantity,
			TotalAmount: money.FormatCents(order.TotalCents),
			Buyer:       realtime.BuyerInfo{Name: buyer.Name, Email: buyer.Email},
		})
	}
}

func buildBillDTO(buyer *models.User, order *models.Order) BillDTO {
	products := make([]BillProductDTO, 0, len(order.Items))
	for _, item := range order.Items {
		products = append(products, BillProductDTO{
			ProductID:  item.ProductID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      money.FormatCents(item.PriceCents),
			SellerID:   item.SellerID,
			SellerName: item.SellerName,
		})
	}
	return BillDTO{
		OrderID:     order.ID,
		User:        BillUser{Name: buyer.Name, Email: buyer.Email},
		Products:    products,
		TotalAmount: money.FormatCents(order.TotalCents),
		CreatedAt:   order.CreatedAt,
	}
}
