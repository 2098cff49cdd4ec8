package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers transaction and lot routes.
func (h *LotHandlers) RegisterRoutes(r chi.Router) {
	r.Post("/transactions", h.HandleImportTransactions)

	r.Route("/lots", func(r chi.Router) {
		r.Get("/", h.HandleGetSymbols)
		r.Get("/{symbol}", h.HandleGetLots)
		r.Get("/{symbol}/export", h.HandleExportLots)
	})
}
