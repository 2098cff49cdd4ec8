package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers order-book routes.
func (h *OrderHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.HandleCreateOrder)
		r.Get("/{symbol}", h.HandleGetOpenOrders)
		r.Post("/{id}/cancel", h.HandleCancelOrder)
		r.Post("/{id}/fill", h.HandleFillOrder)
	})
}
