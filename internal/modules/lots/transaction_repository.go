package lots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/database"
	"github.com/htomlinson/tranche/internal/domain"
)

// TransactionRepository persists the immutable transaction ledger.
type TransactionRepository struct {
	ledgerDB *sql.DB
	log      zerolog.Logger
}

// NewTransactionRepository creates a transaction repository on the ledger database.
func NewTransactionRepository(ledgerDB *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		ledgerDB: ledgerDB,
		log:      log.With().Str("repo", "transaction").Logger(),
	}
}

// SaveBatch inserts transactions and their transfer items atomically.
// Re-imported activity ids are ignored: the ledger is append-only and a
// transaction's content never changes after the fact.
func (r *TransactionRepository) SaveBatch(txs []domain.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	return database.WithTransaction(r.ledgerDB, func(dbTx *sql.Tx) error {
		insertTx, err := dbTx.Prepare(`
			INSERT OR IGNORE INTO transactions
			(activity_id, symbol, trade_date, type, net_amount, split_ratio, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare transaction insert: %w", err)
		}
		defer insertTx.Close()

		insertItem, err := dbTx.Prepare(`
			INSERT INTO transfer_items
			(activity_id, symbol, amount, price, cost, position_effect)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare transfer item insert: %w", err)
		}
		defer insertItem.Close()

		now := time.Now().Unix()
		inserted := 0
		for _, tx := range txs {
			if err := tx.Validate(); err != nil {
				return fmt.Errorf("rejecting transaction batch: %w", err)
			}

			// The symbol column carries the transaction's own symbol
			// (splits) or the first transfer item's, as an index key.
			symbol := domain.NormalizeSymbol(tx.Symbol)
			if symbol == "" {
				if symbols := tx.Symbols(); len(symbols) > 0 {
					symbol = symbols[0]
				}
			}

			res, err := insertTx.Exec(
				tx.ActivityID,
				symbol,
				tx.TradeDate.Unix(),
				string(tx.Type),
				tx.NetAmount,
				nullFloat(tx.SplitRatio),
				now,
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %d: %w", tx.ActivityID, err)
			}
			affected, _ := res.RowsAffected()
			if affected == 0 {
				continue // already in the ledger
			}
			inserted++

			for _, item := range tx.TransferItems {
				if _, err := insertItem.Exec(
					tx.ActivityID,
					domain.NormalizeSymbol(item.Symbol),
					item.Amount,
					item.Price,
					item.Cost,
					nullString(item.PositionEffect),
				); err != nil {
					return fmt.Errorf("failed to insert transfer item for transaction %d: %w", tx.ActivityID, err)
				}
			}
		}

		r.log.Debug().
			Int("received", len(txs)).
			Int("inserted", inserted).
			Msg("saved transaction batch")
		return nil
	})
}

// GetBySymbol returns every transaction touching a symbol, ascending by
// (trade date, activity id) - the order the lot resolver requires.
func (r *TransactionRepository) GetBySymbol(symbol string) ([]domain.Transaction, error) {
	symbol = domain.NormalizeSymbol(symbol)

	// Splits carry no transfer items, so they match on the transactions
	// row itself; trades match through their transfer items.
	query := `
		SELECT DISTINCT t.activity_id, t.symbol, t.trade_date, t.type, t.net_amount, t.split_ratio
		FROM transactions t
		LEFT JOIN transfer_items ti ON ti.activity_id = t.activity_id
		WHERE t.symbol = ? OR ti.symbol = ?
		ORDER BY t.trade_date ASC, t.activity_id ASC
	`

	rows, err := r.ledgerDB.Query(query, symbol, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions for %s: %w", symbol, err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions for %s: %w", symbol, err)
	}

	for i := range txs {
		items, err := r.getTransferItems(txs[i].ActivityID)
		if err != nil {
			return nil, err
		}
		txs[i].TransferItems = items
	}
	return txs, nil
}

// Symbols lists every distinct symbol present in the ledger.
func (r *TransactionRepository) Symbols() ([]string, error) {
	rows, err := r.ledgerDB.Query(`
		SELECT DISTINCT symbol FROM transfer_items WHERE symbol != '' ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// Count returns the number of transactions in the ledger.
func (r *TransactionRepository) Count() (int, error) {
	var count int
	err := r.ledgerDB.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionRepository) getTransferItems(activityID int64) ([]domain.TransferItem, error) {
	rows, err := r.ledgerDB.Query(`
		SELECT symbol, amount, price, cost, position_effect
		FROM transfer_items
		WHERE activity_id = ?
		ORDER BY id ASC
	`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transfer items for %d: %w", activityID, err)
	}
	defer rows.Close()

	var items []domain.TransferItem
	for rows.Next() {
		var item domain.TransferItem
		var effect sql.NullString
		if err := rows.Scan(&item.Symbol, &item.Amount, &item.Price, &item.Cost, &effect); err != nil {
			return nil, fmt.Errorf("failed to scan transfer item for %d: %w", activityID, err)
		}
		item.PositionEffect = effect.String
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanTransaction(rows *sql.Rows) (domain.Transaction, error) {
	var (
		tx        domain.Transaction
		tradeDate int64
		txType    string
		ratio     sql.NullFloat64
	)
	if err := rows.Scan(&tx.ActivityID, &tx.Symbol, &tradeDate, &txType, &tx.NetAmount, &ratio); err != nil {
		return domain.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	tx.TradeDate = time.Unix(tradeDate, 0).UTC()
	tx.Type = domain.TransactionType(txType)
	if ratio.Valid {
		tx.SplitRatio = ratio.Float64
	}
	return tx, nil
}

func nullFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
