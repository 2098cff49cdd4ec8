package orders

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/domain"
)

// OrderRepository persists the order book in the ledger database.
type OrderRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewOrderRepository creates an order repository on the ledger database.
func NewOrderRepository(ledgerDB *sql.DB, log zerolog.Logger) *OrderRepository {
	return &OrderRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "order").Logger(),
	}
}

// Create inserts a new open order, assigning an id when none is set, and
// returns the stored order.
func (r *OrderRepository) Create(order OpenOrder) (OpenOrder, error) {
	if err := order.Validate(); err != nil {
		return OpenOrder{}, fmt.Errorf("failed to create order: %w", err)
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if order.Status == "" {
		order.Status = OrderStatusOpen
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.Symbol = domain.NormalizeSymbol(order.Symbol)

	_, err := r.ledgerDB.Exec(`
		INSERT INTO orders (id, symbol, side, quantity, limit_price, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, order.ID, order.Symbol, string(order.Side), order.Quantity,
		nullLimit(order.LimitPrice), string(order.Status), order.CreatedAt.Unix())
	if err != nil {
		return OpenOrder{}, fmt.Errorf("failed to insert order %s: %w", order.ID, err)
	}

	r.log.Info().
		Str("order_id", order.ID).
		Str("symbol", order.Symbol).
		Str("side", string(order.Side)).
		Float64("quantity", order.Quantity).
		Msg("order created")
	return order, nil
}

// GetOpenBySymbol returns the open orders for a symbol, oldest first.
func (r *OrderRepository) GetOpenBySymbol(symbol string) ([]OpenOrder, error) {
	rows, err := r.ledgerDB.Query(`
		SELECT id, symbol, side, quantity, limit_price, status, created_at
		FROM orders
		WHERE symbol = ? AND status = ?
		ORDER BY created_at ASC, id ASC
	`, domain.NormalizeSymbol(symbol), string(OrderStatusOpen))
	if err != nil {
		return nil, fmt.Errorf("failed to query open orders for %s: %w", symbol, err)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// CommittedQuantity sums the shares tied up in open sell orders for a
// symbol. Open buys do not reduce what is available to sell.
func (r *OrderRepository) CommittedQuantity(symbol string) (float64, error) {
	var committed float64
	err := r.ledgerDB.QueryRow(`
		SELECT COALESCE(SUM(quantity), 0)
		FROM orders
		WHERE symbol = ? AND side = ? AND status = ?
	`, domain.NormalizeSymbol(symbol), string(domain.OrderSideSell), string(OrderStatusOpen)).Scan(&committed)
	if err != nil {
		return 0, fmt.Errorf("failed to sum committed quantity for %s: %w", symbol, err)
	}
	return committed, nil
}

// UpdateStatus moves an order to a new status. Returns found=false when the
// order does not exist.
func (r *OrderRepository) UpdateStatus(id string, status OrderStatus) (bool, error) {
	res, err := r.ledgerDB.Exec(`
		UPDATE orders SET status = ? WHERE id = ?
	`, string(status), id)
	if err != nil {
		return false, fmt.Errorf("failed to update order %s: %w", id, err)
	}
	affected, _ := res.RowsAffected()
	if affected > 0 {
		r.log.Info().Str("order_id", id).Str("status", string(status)).Msg("order status updated")
	}
	return affected > 0, nil
}

func scanOrders(rows *sql.Rows) ([]OpenOrder, error) {
	var orders []OpenOrder
	for rows.Next() {
		var (
			o         OpenOrder
			side      string
			status    string
			limit     sql.NullFloat64
			createdAt int64
		)
		if err := rows.Scan(&o.ID, &o.Symbol, &side, &o.Quantity, &limit, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		o.Side = domain.OrderSide(side)
		o.Status = OrderStatus(status)
		o.LimitPrice = limit.Float64
		o.CreatedAt = time.Unix(createdAt, 0).UTC()
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func nullLimit(price float64) any {
	if price == 0 {
		return nil
	}
	return price
}
