package lots

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/domain"
)

// quantityEpsilon absorbs floating-point dust when deciding whether a lot
// is exhausted or a disposal oversells the position.
const quantityEpsilon = 1e-9

// Resolver replays a transaction history into the set of still-open tax
// lots using first-in-first-out matching. Splits rescale every open lot in
// place, so a lot's identity (and open date) survives the corporate action.
type Resolver struct {
	log zerolog.Logger
}

// NewResolver creates a lot resolver.
func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{
		log: log.With().Str("component", "lot_resolver").Logger(),
	}
}

// Resolve replays transactions for one symbol and returns the open lots,
// oldest first. Transactions must already be sorted ascending by
// (trade date, activity id); a violation returns ErrOutOfOrder. A disposal
// that exceeds the held quantity returns ErrOversold identifying the
// offending activity and the excess - the partial result is discarded
// because every remaining number would be wrong.
func (r *Resolver) Resolve(txs []domain.Transaction, symbol string) ([]TaxLot, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if err := verifyOrdering(txs); err != nil {
		return nil, err
	}

	var open []TaxLot
	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionTypeSplit:
			if domain.NormalizeSymbol(tx.Symbol) != symbol {
				continue
			}
			open = applySplit(open, tx.SplitRatio)

		default:
			for _, item := range tx.ItemsForSymbol(symbol) {
				switch {
				case item.Amount > quantityEpsilon:
					open = append(open, TaxLot{
						OpenDate:      tx.TradeDate,
						Quantity:      item.Amount,
						CostPerShare:  item.Price,
						SplitMultiple: 1,
					})
				case item.Amount < -quantityEpsilon:
					var err error
					open, err = consumeFIFO(open, -item.Amount, symbol, tx.ActivityID)
					if err != nil {
						return nil, err
					}
				}
				// Zero-amount items (fees, journal entries) carry no shares.
			}
		}
	}

	r.log.Debug().
		Str("symbol", symbol).
		Int("transactions", len(txs)).
		Int("open_lots", len(open)).
		Msg("resolved tax lots")
	return open, nil
}

// verifyOrdering confirms ascending (trade date, activity id) order.
func verifyOrdering(txs []domain.Transaction) error {
	for i := 1; i < len(txs); i++ {
		prev, cur := txs[i-1], txs[i]
		if cur.TradeDate.Before(prev.TradeDate) {
			return fmt.Errorf("activity %d dated %s precedes activity %d dated %s: %w",
				cur.ActivityID, cur.TradeDate.Format("2006-01-02"),
				prev.ActivityID, prev.TradeDate.Format("2006-01-02"), ErrOutOfOrder)
		}
		if cur.TradeDate.Equal(prev.TradeDate) && cur.ActivityID < prev.ActivityID {
			return fmt.Errorf("activity %d sorted after activity %d on the same date: %w",
				cur.ActivityID, prev.ActivityID, ErrOutOfOrder)
		}
	}
	return nil
}

// applySplit rescales every open lot by the split ratio. Quantity and the
// cumulative split multiple scale up, cost per share scales down, so each
// lot's cost basis is preserved exactly up to floating point.
func applySplit(open []TaxLot, ratio float64) []TaxLot {
	if ratio <= 0 {
		return open
	}
	for i := range open {
		open[i].Quantity *= ratio
		open[i].CostPerShare /= ratio
		open[i].SplitMultiple *= ratio
	}
	return open
}

// consumeFIFO removes shares from the front of the lot queue. The final lot
// touched may be left partially consumed.
func consumeFIFO(open []TaxLot, shares float64, symbol string, activityID int64) ([]TaxLot, error) {
	remaining := shares
	for remaining > quantityEpsilon && len(open) > 0 {
		if open[0].Quantity <= remaining+quantityEpsilon {
			remaining -= open[0].Quantity
			open = open[1:]
			continue
		}
		open[0].Quantity -= remaining
		remaining = 0
	}
	if remaining > quantityEpsilon {
		return nil, fmt.Errorf("activity %d sold %.4f more shares of %s than held: %w",
			activityID, math.Abs(remaining), symbol, ErrOversold)
	}
	return open, nil
}
