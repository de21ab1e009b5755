package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, allowOrigins []string, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Use(h.RequireBearer)
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListMyOrders)
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/session", h.CreateSession)
			r.Delete("/session", h.DeleteSession)
			r.Post("/verify-admin", h.VerifyAdmin)
			r.With(h.RequireBearer).Get("/me", h.Me)
		})

		r.Get("/products", h.ListProducts)
		r.Get("/products/related", h.RelatedProducts)
		r.Get("/product/{id}", h.GetProduct)
		r.Post("/upload", h.UploadImage)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireAdmin)

			r.Get("/stats", h.Stats)

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.AdminListOrders)
				r.Get("/{id}", h.AdminGetOrder)
				r.Patch("/{id}/status", h.AdminUpdateOrderStatus)
				r.Delete("/{id}", h.AdminDeleteOrder)
				r.Get("/{id}/invoice", h.AdminOrderInvoice)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.AdminListProducts)
				r.Post("/", h.AdminCreateProduct)
				r.Put("/{id}", h.AdminUpdateProduct)
				r.Delete("/{id}", h.AdminDeleteProduct)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.AdminListUsers)
				r.Get("/count", h.AdminCountUsers)
				r.Post("/", h.AdminCreateUser)
				r.Put("/{id}", h.AdminUpdateUser)
				r.Patch("/{id}/status", h.AdminSetUserStatus)
				r.Delete("/{id}", h.AdminDeleteUser)
			})
		})
	})

	return r
}
