// Package lots reconstructs the set of open tax lots for a security from
// its chronological transaction history and annotates them with gains.
package lots

import (
	"errors"
	"time"
)

// Data-integrity errors. These indicate the transaction history itself is
// wrong (short sale, missing history, bad ordering) and must surface to the
// operator rather than being clamped away: every downstream number would
// otherwise be silently wrong.
var (
	// ErrOversold - a disposal consumed more shares than the position held.
	ErrOversold = errors.New("disposal exceeds held quantity")
	// ErrOutOfOrder - transactions were not supplied in ascending
	// (trade date, activity id) order.
	ErrOutOfOrder = errors.New("transactions out of chronological order")
)

// IsDataIntegrityError reports whether err belongs to the class of failures
// that should surface as an "incomplete data" warning to the operator.
func IsDataIntegrityError(err error) bool {
	return errors.Is(err, ErrOversold) || errors.Is(err, ErrOutOfOrder)
}

// TaxLot represents a still-open acquisition. Computed, never persisted.
type TaxLot struct {
	OpenDate      time.Time `json:"open_date"`
	Quantity      float64   `json:"quantity"`
	CostPerShare  float64   `json:"cost_per_share"`
	SplitMultiple float64   `json:"split_multiple"` // 1.0 when no splits since acquisition
}

// CostBasis is the total cost of the remaining shares in the lot.
func (l TaxLot) CostBasis() float64 {
	return l.Quantity * l.CostPerShare
}

// AnnotatedLot is a TaxLot with gain/loss derived against a current price.
type AnnotatedLot struct {
	TaxLot

	Price          float64 `json:"price"`
	MarketValue    float64 `json:"market_value"`
	CostBasisValue float64 `json:"cost_basis"`
	GainLossDollar float64 `json:"gain_loss_dollar"`
	GainLossPct    float64 `json:"gain_loss_pct"`
}

// TotalQuantity sums the remaining share quantity across lots.
func TotalQuantity(lots []AnnotatedLot) float64 {
	var total float64
	for _, lot := range lots {
		total += lot.Quantity
	}
	return total
}

// TotalCostBasis sums the cost basis across lots.
func TotalCostBasis(lots []AnnotatedLot) float64 {
	var total float64
	for _, lot := range lots {
		total += lot.CostBasisValue
	}
	return total
}
