package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers quote and candle routes.
func (h *QuoteHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/quotes", func(r chi.Router) {
		r.Get("/", h.HandleGetBoard)
		r.Post("/", h.HandleUpdateQuote)
		r.Get("/{symbol}", h.HandleGetQuote)
	})

	r.Post("/candles/{symbol}", h.HandleImportCandles)
}
