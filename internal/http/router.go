package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/readify/storefront/internal/admin"
	"github.com/readify/storefront/internal/catalog"
	"github.com/readify/storefront/internal/checkout"
	"github.com/readify/storefront/internal/ledger"
	"github.com/readify/storefront/internal/notify"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	// LoginRate and LoginBurst throttle admin login attempts per client IP.
	LoginRate  float64
	LoginBurst int
}

type Deps struct {
	Catalog   catalog.Catalog
	Carts     *ledger.Registry
	Checkouts *checkout.Manager
	Gates     *admin.Registry
	Inbox     *notify.Inbox
	QR        QRRenderer
	// Admin may be nil when no backend is configured.
	Admin AdminBackend
}

// NewRouter wires the storefront API under /api/v1.
func NewRouter(cfg RouterConfig, d Deps) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRequestBodySize <= 0 {
		cfg.MaxRequestBodySize = 1 << 20
	}
	if cfg.LoginRate <= 0 {
		cfg.LoginRate = 0.2
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = 5
	}

	catalogHandler := NewCatalogHandler(d.Catalog, cfg.RequestTimeout)
	cartHandler := NewCartHandler(d.Carts, d.Catalog, cfg.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(d.Checkouts, d.Carts, d.QR, cfg.RequestTimeout)
	adminHandler := NewAdminHandler(d.Gates, d.Admin, cfg.RequestTimeout)
	limiter := NewLoginLimiter(cfg.LoginRate, cfg.LoginBurst)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(middleware.RequestSize(cfg.MaxRequestBodySize))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Get("/books", catalogHandler.ListBooks)
		r.Get("/books/{id}", catalogHandler.GetBook)
		r.Get("/books/{id}/related", catalogHandler.RelatedBooks)
		r.Get("/categories", catalogHandler.Categories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{book_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{book_id}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.Start)
			r.Get("/{id}", checkoutHandler.Get)
			r.Delete("/{id}", checkoutHandler.Discard)
			r.Post("/{id}/payment", checkoutHandler.SubmitDetails)
			r.Get("/{id}/payment/qr", checkoutHandler.QRCode)
			r.Post("/{id}/payment/cancel", checkoutHandler.Cancel)
			r.Post("/{id}/payment/confirm", checkoutHandler.Confirm)
		})

		r.Get("/notifications", NotificationsHandler(d.Inbox))

		r.Route("/admin", func(r chi.Router) {
			r.With(limiter.Middleware).Post("/login", adminHandler.Login)
			r.Post("/logout", adminHandler.Logout)
			r.Get("/session", adminHandler.Session)

			r.Group(func(r chi.Router) {
				r.Use(adminHandler.RequireAdmin)
				r.Get("/dashboard", adminHandler.Dashboard)
				r.Get("/orders", adminHandler.Orders)
				r.Get("/users", adminHandler.Users)
				r.Put("/orders/{id}", adminHandler.UpdateOrderStatus)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
