package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lmorales-dev/shopstream-backend/api/controllers"
	"github.com/lmorales-dev/shopstream-backend/api/middleware"
	"github.com/lmorales-dev/shopstream-backend/internal/auth"
	"github.com/lmorales-dev/shopstream-backend/internal/cart"
	"github.com/lmorales-dev/shopstream-backend/internal/checkout"
	"github.com/lmorales-dev/shopstream-backend/internal/coupons"
	"github.com/lmorales-dev/shopstream-backend/internal/products"
	"github.com/lmorales-dev/shopstream-backend/internal/realtime"
	"github.com/lmorales-dev/shopstream-backend/internal/users"
	"github.com/lmorales-dev/shopstream-backend/pkg/config"
	"github.com/lmorales-dev/shopstream-backend/pkg/db"
	"github.com/lmorales-dev/shopstream-backend/pkg/logger"
	"github.com/lmorales-dev/shopstream-backend/pkg/redis"
)

// Services collects everything the router wires into handlers.
type Services struct {
	Auth     auth.Service
	Users    users.Service
	Products products.Service
	Cart     cart.Service
	Coupons  coupons.Service
	Checkout checkout.Service
	Hub      *realtime.Hub
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.Frontend.BaseURL),
	)

	authed := middleware.Auth(cfg.JWT, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", controllers.AuthSignup(svcs.Auth, cfg, logg))
		r.Post("/login", controllers.AuthLogin(svcs.Auth, cfg, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg, logg))
		r.Post("/refresh-token", controllers.AuthRefresh(svcs.Auth, cfg, logg))
		r.Post("/forgot-password", controllers.AuthForgotPassword(svcs.Auth, logg))
		r.Post("/reset-password", controllers.AuthResetPassword(svcs.Auth, logg))
		r.With(authed).Get("/profile", controllers.AuthProfile(svcs.Auth, logg))
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/featured", controllers.ProductFeatured(svcs.Products, logg))
		r.Get("/category/{category}", controllers.ProductsByCategory(svcs.Products, logg))
		r.Get("/recommendations", controllers.ProductRecommendations(svcs.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.With(middleware.RequireSeller(logg)).Get("/", controllers.ProductList(svcs.Products, logg))
			r.With(middleware.RequireSeller(logg)).Post("/", controllers.ProductCreate(svcs.Products, logg))
			r.With(middleware.RequireRole("admin", logg)).Patch("/{id}", controllers.ProductToggleFeatured(svcs.Products, logg))
			r.With(middleware.RequireSeller(logg)).Delete("/{id}", controllers.ProductDelete(svcs.Products, logg))
		})
	})

	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", controllers.CartList(svcs.Cart, logg))
		r.Post("/", controllers.CartAdd(svcs.Cart, logg))
		r.Put("/{id}", controllers.CartUpdateQuantity(svcs.Cart, logg))
		r.Delete("/", controllers.CartRemove(svcs.Cart, logg))
	})

	r.Route("/api/coupons", func(r chi.Router) {
		r.Use(authed)
		r.Get("/", controllers.CouponGetActive(svcs.Coupons, logg))
		r.Post("/validate", controllers.CouponValidate(svcs.Coupons, logg))
	})

	r.Route("/api/payments", func(r chi.Router) {
		r.Use(authed)
		r.Post("/checkout-session", controllers.CheckoutSession(svcs.Checkout, logg))
		r.Post("/checkout-success", controllers.CheckoutSuccess(svcs.Checkout, logg))
	})

	r.Route("/api/user", func(r chi.Router) {
		r.Use(authed)
		r.Get("/profile", controllers.UserProfile(svcs.Users, logg))
		r.Put("/profile/name", controllers.UserUpdateName(svcs.Users, logg))
	})

	r.Route("/api/realtime", func(r chi.Router) {
		r.Use(authed, middleware.RequireSeller(logg))
		r.Get("/events", controllers.RealtimeEvents(svcs.Hub, logg))
	})

	return r
}
