// Package planning derives tiered sell recommendations and a sized buy
// recommendation from resolved tax lots, the current price, and a
// volatility measure. Recommendations are ephemeral: recomputed on every
// request, never persisted.
package planning

import "time"

// SellRecommendation describes one cumulative sell tranche. Shares is the
// cumulative quantity of the whole block, not a single lot's quantity.
type SellRecommendation struct {
	Shares          float64   `json:"shares"`
	BreakEven       float64   `json:"break_even"`
	GainPct         float64   `json:"gain_pct"`
	TrailingStopPct float64   `json:"trailing_stop_pct"`
	Entry           float64   `json:"entry"`
	Target          float64   `json:"target"`
	Cancel          float64   `json:"cancel"`
	RollingGainLoss float64   `json:"rolling_gain_loss"`
	Description     string    `json:"description"`
	OpenDate        time.Time `json:"open_date"`
}

// BuyRecommendation describes a single sized buy order.
type BuyRecommendation struct {
	Shares          float64 `json:"shares"`
	TargetBuyPrice  float64 `json:"target_buy_price"`
	EntryPrice      float64 `json:"entry_price"`
	TrailingStopPct float64 `json:"trailing_stop_pct"`
	TargetGainPct   float64 `json:"target_gain_pct"`
	CurrentGainPct  float64 `json:"current_gain_pct"`
	OrderCost       float64 `json:"order_cost"`
	Description     string  `json:"description"`
}

// Available returns the share quantity free to plan against: total held
// minus what open orders already commit, floored at zero. Isolated so the
// sell and buy paths cannot drift apart on the subtraction.
func Available(totalQuantity, committed float64) float64 {
	available := totalQuantity - committed
	if available < 0 {
		return 0
	}
	return available
}
