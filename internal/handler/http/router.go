package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/auth"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/service"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/health"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/middleware"
)

// RouterDeps carries everything the router wires together.
type RouterDeps struct {
	Users      *service.UserService
	Cart       *service.CartService
	Wishlist   *service.WishlistService
	Catalog    *service.CatalogService
	Orders     *service.OrderService
	JWTManager *auth.JWTManager
	Health     *health.Handler
	Logger     *slog.Logger
	CORS       middleware.CORSConfig

	// PprofCIDRs, when non-empty, mounts /debug/pprof restricted to the
	// given networks.
	PprofCIDRs []string

	// AuthRPS/AuthBurst, when positive, rate-limit the public auth
	// endpoints per client IP.
	AuthRPS   int
	AuthBurst int
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(deps.CORS))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.RequestLogging(deps.Logger))
	r.Use(middleware.PrometheusMetrics("storefront"))
	r.Use(middleware.Tracing("storefront"))

	r.Get("/health/live", deps.Health.LivenessHandler())
	r.Get("/health/ready", deps.Health.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if len(deps.PprofCIDRs) > 0 {
		middleware.RegisterPprof(r, deps.PprofCIDRs, deps.Logger)
	}

	validateToken := tokenValidator(deps.JWTManager)

	authHandler := NewAuthHandler(deps.Users, deps.Logger)
	cartHandler := NewCartHandler(deps.Cart, deps.Logger)
	wishlistHandler := NewWishlistHandler(deps.Wishlist, deps.Logger)
	productHandler := NewProductHandler(deps.Catalog, deps.Logger)
	categoryHandler := NewCategoryHandler(deps.Catalog, deps.Logger)
	orderHandler := NewOrderHandler(deps.Orders, deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Public auth endpoints. Credential guessing is the abuse case,
		// so these are the rate-limited surface.
		r.Route("/auth", func(r chi.Router) {
			if deps.AuthRPS > 0 {
				r.Use(middleware.RateLimit(deps.AuthRPS, deps.AuthBurst, deps.Logger))
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(validateToken))
				r.Get("/me", authHandler.Me)
			})
		})

		// Public catalog reads.
		r.Get("/products", productHandler.List)
		r.Get("/products/slug/{slug}", productHandler.GetBySlug)
		r.Get("/products/{id}", productHandler.Get)
		r.Get("/categories", categoryHandler.List)

		// Admin catalog writes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Post("/products", productHandler.Create)
			r.Put("/products/{id}", productHandler.Update)
			r.Delete("/products/{id}", productHandler.Delete)
			r.Post("/categories", categoryHandler.Create)
			r.Put("/categories/{id}", categoryHandler.Update)
			r.Delete("/categories/{id}", categoryHandler.Delete)
		})

		// Cart and wishlist, the storefront's literal-shape endpoints.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))

			r.Get("/cart", cartHandler.Get)
			r.Post("/cart", cartHandler.Add)
			r.Put("/cart/{productId}", cartHandler.Update)
			r.Delete("/cart/{productId}", cartHandler.Remove)
			r.Delete("/cart", cartHandler.Clear)

			r.Get("/wishlist", wishlistHandler.List)
			r.Post("/wishlist", wishlistHandler.Add)
			r.Delete("/wishlist/{productId}", wishlistHandler.Remove)
			r.Get("/wishlist/check/{productId}", wishlistHandler.Check)
		})

		// Orders.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(validateToken))

			r.Post("/orders", orderHandler.Checkout)
			r.Get("/orders", orderHandler.List)
			r.Get("/orders/{id}", orderHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Put("/orders/{id}/status", orderHandler.UpdateStatus)
			})
		})
	})

	return r
}

// tokenValidator bridges the JWT manager to the auth middleware.
func tokenValidator(m *auth.JWTManager) middleware.TokenValidator {
	return func(token string) (*middleware.Claims, error) {
		claims, err := m.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
			Role:   claims.Role,
		}, nil
	}
}
