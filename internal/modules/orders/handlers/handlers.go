// Package handlers provides HTTP handlers for the open-order book.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/domain"
	"github.com/htomlinson/tranche/internal/modules/orders"
)

// OrderHandlers contains HTTP handlers for the orders API.
type OrderHandlers struct {
	repo *orders.OrderRepository
	log  zerolog.Logger
}

// NewOrderHandlers creates order handlers.
func NewOrderHandlers(repo *orders.OrderRepository, log zerolog.Logger) *OrderHandlers {
	return &OrderHandlers{
		repo: repo,
		log:  log.With().Str("handler", "orders").Logger(),
	}
}

// HandleCreateOrder records a new open order.
// POST /api/orders
func (h *OrderHandlers) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var order orders.OpenOrder
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		http.Error(w, "Invalid order payload", http.StatusBadRequest)
		return
	}

	created, err := h.repo.Create(order)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGetOpenOrders returns the open orders and committed quantity for a
// symbol.
// GET /api/orders/{symbol}
func (h *OrderHandlers) HandleGetOpenOrders(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")

	open, err := h.repo.GetOpenBySymbol(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to list open orders")
		http.Error(w, "Failed to list open orders", http.StatusInternalServerError)
		return
	}
	if open == nil {
		open = []orders.OpenOrder{}
	}

	committed, err := h.repo.CommittedQuantity(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to sum committed quantity")
		http.Error(w, "Failed to sum committed quantity", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol":    domain.NormalizeSymbol(symbol),
		"orders":    open,
		"committed": committed,
	})
}

// HandleCancelOrder cancels an open order.
// POST /api/orders/{id}/cancel
func (h *OrderHandlers) HandleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.repo.UpdateStatus(id, orders.OrderStatusCancelled)
	if err != nil {
		h.log.Error().Err(err).Str("order_id", id).Msg("Failed to cancel order")
		http.Error(w, "Failed to cancel order", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleFillOrder marks an open order as filled.
// POST /api/orders/{id}/fill
func (h *OrderHandlers) HandleFillOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, err := h.repo.UpdateStatus(id, orders.OrderStatusFilled)
	if err != nil {
		h.log.Error().Err(err).Str("order_id", id).Msg("Failed to fill order")
		http.Error(w, "Failed to fill order", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
