// Package handlers provides HTTP handlers for transaction ingest and
// resolved tax-lot queries.
package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/domain"
	"github.com/htomlinson/tranche/internal/modules/lots"
)

// PriceSource supplies the current price for annotation.
type PriceSource interface {
	EffectivePrice(symbol string) (float64, bool, error)
}

// LotHandlers contains HTTP handlers for the lots API.
type LotHandlers struct {
	service *lots.Service
	prices  PriceSource
	log     zerolog.Logger
}

// NewLotHandlers creates lot handlers.
func NewLotHandlers(service *lots.Service, prices PriceSource, log zerolog.Logger) *LotHandlers {
	return &LotHandlers{
		service: service,
		prices:  prices,
		log:     log.With().Str("handler", "lots").Logger(),
	}
}

// HandleImportTransactions ingests a transaction batch.
// POST /api/transactions
func (h *LotHandlers) HandleImportTransactions(w http.ResponseWriter, r *http.Request) {
	var txs []domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txs); err != nil {
		http.Error(w, "Invalid transaction payload", http.StatusBadRequest)
		return
	}

	if err := h.service.ImportTransactions(txs); err != nil {
		h.log.Error().Err(err).Msg("Failed to import transactions")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"imported": len(txs),
	})
}

// HandleGetLots returns the annotated open lots for a symbol. The price
// query parameter overrides the live quote, which makes what-if queries
// possible without touching the quote board.
// GET /api/lots/{symbol}?price=123.45
func (h *LotHandlers) HandleGetLots(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	price, ok := h.resolvePrice(w, r, symbol)
	if !ok {
		return
	}

	annotated, err := h.service.AnnotatedLots(symbol, price)
	if err != nil {
		h.respondLotError(w, symbol, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":           domain.NormalizeSymbol(symbol),
		"price":            price,
		"lots":             emptyIfNil(annotated),
		"total_quantity":   lots.TotalQuantity(annotated),
		"total_cost_basis": lots.TotalCostBasis(annotated),
	})
}

// HandleExportLots renders the annotated lots as CSV for spreadsheets.
// GET /api/lots/{symbol}/export
func (h *LotHandlers) HandleExportLots(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	price, ok := h.resolvePrice(w, r, symbol)
	if !ok {
		return
	}

	annotated, err := h.service.AnnotatedLots(symbol, price)
	if err != nil {
		h.respondLotError(w, symbol, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s-lots.csv", domain.NormalizeSymbol(symbol)))

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"open_date", "quantity", "cost_per_share", "split_multiple",
		"market_value", "cost_basis", "gain_loss_dollar", "gain_loss_pct"})
	for _, lot := range annotated {
		_ = cw.Write([]string{
			lot.OpenDate.Format("2006-01-02"),
			strconv.FormatFloat(lot.Quantity, 'f', 4, 64),
			strconv.FormatFloat(lot.CostPerShare, 'f', 4, 64),
			strconv.FormatFloat(lot.SplitMultiple, 'f', 2, 64),
			strconv.FormatFloat(lot.MarketValue, 'f', 2, 64),
			strconv.FormatFloat(lot.CostBasisValue, 'f', 2, 64),
			strconv.FormatFloat(lot.GainLossDollar, 'f', 2, 64),
			strconv.FormatFloat(lot.GainLossPct, 'f', 2, 64),
		})
	}
	cw.Flush()
}

// HandleGetSymbols lists every symbol with ledger history.
// GET /api/lots
func (h *LotHandlers) HandleGetSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.service.Symbols()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list symbols")
		http.Error(w, "Failed to list symbols", http.StatusInternalServerError)
		return
	}
	if symbols == nil {
		symbols = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbols": symbols})
}

func (h *LotHandlers) resolvePrice(w http.ResponseWriter, r *http.Request, symbol string) (float64, bool) {
	if raw := r.URL.Query().Get("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			http.Error(w, "Invalid price parameter", http.StatusBadRequest)
			return 0, false
		}
		return price, true
	}

	price, found, err := h.prices.EffectivePrice(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to look up price")
		http.Error(w, "Failed to look up price", http.StatusInternalServerError)
		return 0, false
	}
	if !found {
		http.Error(w, "No price available for symbol", http.StatusNotFound)
		return 0, false
	}
	return price, true
}

// respondLotError maps data-integrity failures to 422 with an explicit
// warning so the operator sees incomplete data instead of wrong numbers.
func (h *LotHandlers) respondLotError(w http.ResponseWriter, symbol string, err error) {
	if lots.IsDataIntegrityError(err) {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Transaction history failed integrity check")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"warning": "incomplete data",
			"error":   err.Error(),
		})
		return
	}
	h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to resolve lots")
	http.Error(w, "Failed to resolve lots", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func emptyIfNil(annotated []lots.AnnotatedLot) []lots.AnnotatedLot {
	if annotated == nil {
		return []lots.AnnotatedLot{}
	}
	return annotated
}
