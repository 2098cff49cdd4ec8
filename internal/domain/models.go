// Package domain provides core domain models and types.
// The domain layer is pure: no infrastructure dependencies, value types only.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransactionType categorizes a historical account event.
type TransactionType string

const (
	// TransactionTypeTrade is a regular buy or sell execution.
	TransactionTypeTrade TransactionType = "TRADE"
	// TransactionTypeReceiveAndDeliver covers transfers in and out of the account.
	TransactionTypeReceiveAndDeliver TransactionType = "RECEIVE_AND_DELIVER"
	// TransactionTypeSplit is a share-count-changing corporate action.
	// The split ratio rides on the transaction itself; it is never inferred
	// from zero-cost quantity changes.
	TransactionTypeSplit TransactionType = "SPLIT"
)

// TransferItem ties a signed share quantity and execution price to an
// instrument symbol. Negative amount = shares removed from the position
// (sell), positive = shares added (buy). A transaction can carry several
// transfer items (multi-leg settlements); only items whose symbol matches
// the security under analysis are relevant to it.
type TransferItem struct {
	Symbol         string  `json:"symbol"`
	Amount         float64 `json:"amount"`
	Price          float64 `json:"price"`
	Cost           float64 `json:"cost"`
	PositionEffect string  `json:"position_effect,omitempty"`
}

// Transaction is an immutable historical account event. Symbol identifies
// the instrument for events that carry no transfer items (splits); trades
// name their instruments on the transfer items instead.
type Transaction struct {
	ActivityID    int64           `json:"activity_id"`
	Symbol        string          `json:"symbol,omitempty"`
	TradeDate     time.Time       `json:"trade_date"`
	Type          TransactionType `json:"type"`
	NetAmount     float64         `json:"net_amount"`
	SplitRatio    float64         `json:"split_ratio,omitempty"` // Only meaningful for SPLIT
	TransferItems []TransferItem  `json:"transfer_items"`
}

// Validate checks structural invariants before a transaction enters the ledger.
func (t Transaction) Validate() error {
	if t.ActivityID <= 0 {
		return fmt.Errorf("transaction requires a positive activity id, got %d", t.ActivityID)
	}
	if t.TradeDate.IsZero() {
		return fmt.Errorf("transaction %d has no trade date", t.ActivityID)
	}
	switch t.Type {
	case TransactionTypeTrade, TransactionTypeReceiveAndDeliver:
		if len(t.TransferItems) == 0 {
			return fmt.Errorf("transaction %d has no transfer items", t.ActivityID)
		}
	case TransactionTypeSplit:
		if t.SplitRatio <= 0 {
			return fmt.Errorf("split transaction %d has non-positive ratio %g", t.ActivityID, t.SplitRatio)
		}
		if NormalizeSymbol(t.Symbol) == "" {
			return fmt.Errorf("split transaction %d names no symbol", t.ActivityID)
		}
	default:
		return fmt.Errorf("transaction %d has unknown type %q", t.ActivityID, t.Type)
	}
	return nil
}

// ItemsForSymbol returns the transfer items relevant to one symbol.
// Items with an empty symbol are skipped as irrelevant.
func (t Transaction) ItemsForSymbol(symbol string) []TransferItem {
	symbol = NormalizeSymbol(symbol)
	var items []TransferItem
	for _, item := range t.TransferItems {
		if item.Symbol == "" {
			continue
		}
		if NormalizeSymbol(item.Symbol) == symbol {
			items = append(items, item)
		}
	}
	return items
}

// Symbols returns the distinct symbols a transaction touches.
func (t Transaction) Symbols() []string {
	seen := make(map[string]bool)
	var symbols []string
	if s := NormalizeSymbol(t.Symbol); s != "" {
		seen[s] = true
		symbols = append(symbols, s)
	}
	for _, item := range t.TransferItems {
		if item.Symbol == "" {
			continue
		}
		s := NormalizeSymbol(item.Symbol)
		if !seen[s] {
			seen[s] = true
			symbols = append(symbols, s)
		}
	}
	return symbols
}

// NormalizeSymbol canonicalizes a ticker symbol for lookups.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)
