// Package handlers provides HTTP handlers for sell and buy planning.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/domain"
	"github.com/htomlinson/tranche/internal/modules/lots"
	"github.com/htomlinson/tranche/internal/modules/planning"
)

// PlanningHandlers contains HTTP handlers for the planning API.
type PlanningHandlers struct {
	service *planning.Service
	log     zerolog.Logger
}

// NewPlanningHandlers creates planning handlers.
func NewPlanningHandlers(service *planning.Service, log zerolog.Logger) *PlanningHandlers {
	return &PlanningHandlers{
		service: service,
		log:     log.With().Str("handler", "planning").Logger(),
	}
}

// HandlePlanSell returns the ordered sell recommendations for a symbol.
// GET /api/plan/{symbol}/sell
func (h *PlanningHandlers) HandlePlanSell(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	recs, err := h.service.PlanSell(symbol)
	if err != nil {
		h.respondPlanError(w, symbol, err)
		return
	}
	if recs == nil {
		recs = []planning.SellRecommendation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":          domain.NormalizeSymbol(symbol),
		"recommendations": recs,
	})
}

// HandlePlanBuy returns the buy recommendation for a symbol, which may be
// null when there is nothing sensible to recommend.
// GET /api/plan/{symbol}/buy
func (h *PlanningHandlers) HandlePlanBuy(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	rec, err := h.service.PlanBuy(symbol)
	if err != nil {
		h.respondPlanError(w, symbol, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":         domain.NormalizeSymbol(symbol),
		"recommendation": rec,
	})
}

// HandleAvailable returns the share quantity free to plan against.
// GET /api/plan/{symbol}/available
func (h *PlanningHandlers) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	available, err := h.service.SharesAvailable(symbol)
	if err != nil {
		h.respondPlanError(w, symbol, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":    domain.NormalizeSymbol(symbol),
		"available": available,
	})
}

// respondPlanError keeps the 422 warning semantics for data-integrity
// failures coming up through lot resolution.
func (h *PlanningHandlers) respondPlanError(w http.ResponseWriter, symbol string, err error) {
	if lots.IsDataIntegrityError(err) {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Transaction history failed integrity check")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"warning": "incomplete data",
			"error":   err.Error(),
		})
		return
	}
	h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to compute plan")
	http.Error(w, "Failed to compute plan", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
