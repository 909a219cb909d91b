package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/toledos-acai/api/internal/cart"
	"github.com/toledos-acai/api/internal/config"
	"github.com/toledos-acai/api/internal/handler"
	mw "github.com/toledos-acai/api/internal/middleware"
	"github.com/toledos-acai/api/internal/repository"
	"github.com/toledos-acai/api/internal/service"
	"github.com/toledos-acai/api/internal/ws"
	"go.uber.org/zap"
)

// New creates a Chi router with all application routes wired up.
// The storefront side is public; the dashboard lives behind JWT auth.
func New(cfg *config.Config, queries *repository.Queries, pool *pgxpool.Pool, storage cart.Storage, hub *ws.Hub, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Public storefront: menu, cart, checkout, order tracking
	catalogHandler := handler.NewCatalogHandler(queries, logger)
	catalogHandler.RegisterRoutes(r)

	cartHandler := handler.NewCartHandler(queries, storage, logger)
	cartHandler.RegisterRoutes(r)

	newCheckoutStore := func(db repository.DBTX) service.CheckoutStore {
		return repository.New(db)
	}
	checkoutService := service.NewCheckoutService(pool, newCheckoutStore)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, cartHandler, hub, logger)
	checkoutHandler.RegisterRoutes(r)

	orderHandler := handler.NewOrderHandler(queries, hub, logger)
	orderHandler.RegisterPublicRoutes(r)

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret, logger)
	authHandler.RegisterRoutes(r)

	// WebSocket routes (admin socket validates JWT via query param)
	r.Get("/ws/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeOrderWS(hub, logger, w, r)
	})
	r.Get("/ws/admin", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeAdminWS(hub, cfg.JWTSecret, logger, w, r)
	})

	// Dashboard routes (require authentication)
	r.Route("/admin", func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		orderHandler.RegisterAdminRoutes(r)
	})

	return r
}
