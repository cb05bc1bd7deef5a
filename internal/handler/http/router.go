package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/storefront"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/health"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/middleware"
)

// ServiceName labels metrics and spans.
const ServiceName = "storefront"

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	// CatalogFile, when set, is served at GET /products.json.
	CatalogFile    string
	RequestTimeout time.Duration
	// RateLimit applies per client to /events and /api/v1.
	RateLimit middleware.RateLimitConfig
	// TrustProxyHeaders takes the client address from X-Forwarded-For or
	// X-Real-IP. Enable only behind a proxy that sets them.
	TrustProxyHeaders bool
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	sf *storefront.Storefront,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	limit := middleware.RateLimit(cfg.RateLimit, logger)

	// Global middleware
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if cfg.CatalogFile != "" {
		r.Get("/products.json", ServeCatalogFile(cfg.CatalogFile))
	}

	pageHandler := NewStorefrontHandler(sf, logger)
	r.Group(func(r chi.Router) {
		r.Use(NoStore)
		r.Get("/", pageHandler.Page)
		r.With(limit).Post("/events", pageHandler.Event)
	})

	cartHandler := NewCartHandler(sf, logger)
	catalogHandler := NewCatalogHandler(sf, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(NoStore)
		r.Use(ContentTypeJSON)
		r.Use(limit)

		r.Get("/products", catalogHandler.ListProducts)
		r.Post("/catalog/reload", catalogHandler.Reload)

		r.Get("/cart", cartHandler.GetCart)
		r.Delete("/cart", cartHandler.ClearCart)
		r.Post("/cart/items", cartHandler.AddItem)
		r.Patch("/cart/items/{productId}", cartHandler.UpdateItemQuantity)
		r.Delete("/cart/items/{productId}", cartHandler.RemoveItem)

		r.Post("/checkout", cartHandler.Checkout)
	})

	return r
}
