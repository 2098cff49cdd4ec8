// Package quotes holds price data: current quote snapshots, daily candle
// history, and the volatility measures derived from them.
package quotes

import "time"

// Quote is a point-in-time price snapshot for a symbol. Session fields are
// optional; EffectivePrice picks the most current one available.
type Quote struct {
	Symbol        string    `json:"symbol"`
	LastPrice     float64   `json:"last_price"`
	ExtendedPrice float64   `json:"extended_price,omitempty"`
	RegularPrice  float64   `json:"regular_price,omitempty"`
	AsOf          time.Time `json:"as_of"`
}

// EffectivePrice returns the freshest usable price: live trade first, then
// the extended-hours mark, then the regular-session close. Zero when the
// quote carries no price at all.
func (q Quote) EffectivePrice() float64 {
	if q.LastPrice > 0 {
		return q.LastPrice
	}
	if q.ExtendedPrice > 0 {
		return q.ExtendedPrice
	}
	return q.RegularPrice
}

// Candle is one day of OHLCV history.
type Candle struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}
