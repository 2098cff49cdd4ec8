// Package handlers provides HTTP handlers for quote and candle ingest.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/domain"
	"github.com/htomlinson/tranche/internal/modules/quotes"
)

// QuoteHandlers contains HTTP handlers for the quotes API.
type QuoteHandlers struct {
	service *quotes.Service
	log     zerolog.Logger
}

// NewQuoteHandlers creates quote handlers.
func NewQuoteHandlers(service *quotes.Service, log zerolog.Logger) *QuoteHandlers {
	return &QuoteHandlers{
		service: service,
		log:     log.With().Str("handler", "quotes").Logger(),
	}
}

// HandleUpdateQuote stores a quote snapshot.
// POST /api/quotes
func (h *QuoteHandlers) HandleUpdateQuote(w http.ResponseWriter, r *http.Request) {
	var q quotes.Quote
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "Invalid quote payload", http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateQuote(q); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetQuote returns the stored quote and derived figures for a symbol.
// GET /api/quotes/{symbol}
func (h *QuoteHandlers) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	price, found, err := h.service.EffectivePrice(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to look up price")
		http.Error(w, "Failed to look up price", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "No price available for symbol", http.StatusNotFound)
		return
	}

	volatility, err := h.service.VolatilityPercent(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to compute volatility")
		http.Error(w, "Failed to compute volatility", http.StatusInternalServerError)
		return
	}

	payload := map[string]any{
		"symbol":         domain.NormalizeSymbol(symbol),
		"price":          price,
		"volatility_pct": volatility,
	}
	if q, ok := h.service.Quote(symbol); ok {
		payload["quote"] = q
	}
	writeJSON(w, http.StatusOK, payload)
}

// HandleImportCandles ingests a batch of daily candles for one symbol.
// POST /api/candles/{symbol}
func (h *QuoteHandlers) HandleImportCandles(w http.ResponseWriter, r *http.Request) {
	symbol := domain.NormalizeSymbol(chi.URLParam(r, "symbol"))

	var candles []quotes.Candle
	if err := json.NewDecoder(r.Body).Decode(&candles); err != nil {
		http.Error(w, "Invalid candle payload", http.StatusBadRequest)
		return
	}
	for i := range candles {
		candles[i].Symbol = symbol
	}

	if err := h.service.ImportCandles(candles); err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to import candles")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"symbol":   symbol,
		"imported": len(candles),
	})
}

// HandleGetBoard returns every stored quote.
// GET /api/quotes
func (h *QuoteHandlers) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"quotes": h.service.Board()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
