package httpapi

import (
	"net/http"

	"warehouse-be/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts every route. authn guards everything except /health.
func NewRouter(h *Handler, authn func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware)
	r.Use(middleware.RealIP)
	r.Use(logger.LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.CreateOrder)
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.Put("/{id}", h.UpdateOrderFlags)
			r.Put("/{id}/edit", h.EditOrder)
			r.Delete("/{id}", h.DeleteOrder)
			r.Get("/{id}/pdf", h.OrderDocument)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", h.ListInventory)
			r.Post("/", h.CreateInventory)
			r.Post("/adjust", h.AdjustInventory)
			r.Get("/{material}/{specification}", h.GetInventory)
		})
	})

	return r
}
