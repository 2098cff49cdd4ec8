package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers planning routes.
func (h *PlanningHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/plan/{symbol}", func(r chi.Router) {
		r.Get("/sell", h.HandlePlanSell)
		r.Get("/buy", h.HandlePlanBuy)
		r.Get("/available", h.HandleAvailable)
	})
}
