// Package orders tracks the open-order book. Its main job for the planners
// is answering how many shares are already committed to open sell orders.
package orders

import (
	"fmt"
	"time"

	"github.com/htomlinson/tranche/internal/domain"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusOpen      OrderStatus = "OPEN"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// OpenOrder is an order tracked by the engine.
type OpenOrder struct {
	ID         string           `json:"id"`
	Symbol     string           `json:"symbol"`
	Side       domain.OrderSide `json:"side"`
	Quantity   float64          `json:"quantity"`
	LimitPrice float64          `json:"limit_price,omitempty"`
	Status     OrderStatus      `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Validate checks an order before it enters the book.
func (o OpenOrder) Validate() error {
	if domain.NormalizeSymbol(o.Symbol) == "" {
		return fmt.Errorf("order requires a symbol")
	}
	if o.Side != domain.OrderSideBuy && o.Side != domain.OrderSideSell {
		return fmt.Errorf("order for %s has invalid side %q", o.Symbol, o.Side)
	}
	if o.Quantity <= 0 {
		return fmt.Errorf("order for %s has non-positive quantity %g", o.Symbol, o.Quantity)
	}
	if o.LimitPrice < 0 {
		return fmt.Errorf("order for %s has negative limit price %g", o.Symbol, o.LimitPrice)
	}
	return nil
}
