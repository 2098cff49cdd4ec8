package quotes

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/database"
	"github.com/htomlinson/tranche/internal/domain"
)

// HistoryRepository persists daily candles in the history database.
type HistoryRepository struct {
	historyDB *sql.DB
	log       zerolog.Logger
}

// NewHistoryRepository creates a candle repository on the history database.
func NewHistoryRepository(historyDB *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		historyDB: historyDB,
		log:       log.With().Str("repo", "history").Logger(),
	}
}

// SaveCandles upserts a batch of daily candles. Re-imported days overwrite
// the stored row, so corrected vendor data wins.
func (r *HistoryRepository) SaveCandles(candles []Candle) error {
	if len(candles) == 0 {
		return nil
	}

	return database.WithTransaction(r.historyDB, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO daily_candles (symbol, date, open, high, low, close, volume)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(symbol, date) DO UPDATE SET
				open = excluded.open,
				high = excluded.high,
				low = excluded.low,
				close = excluded.close,
				volume = excluded.volume
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare candle insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range candles {
			if c.Symbol == "" || c.Date.IsZero() {
				return fmt.Errorf("candle missing symbol or date: %+v", c)
			}
			if _, err := stmt.Exec(
				domain.NormalizeSymbol(c.Symbol),
				dateKey(c.Date),
				c.Open, c.High, c.Low, c.Close, c.Volume,
			); err != nil {
				return fmt.Errorf("failed to insert candle %s/%s: %w",
					c.Symbol, c.Date.Format("2006-01-02"), err)
			}
		}

		r.log.Debug().Int("candles", len(candles)).Msg("saved candle batch")
		return nil
	})
}

// GetCandles returns up to limit most-recent candles for a symbol, in
// ascending date order. limit <= 0 returns the full history.
func (r *HistoryRepository) GetCandles(symbol string, limit int) ([]Candle, error) {
	symbol = domain.NormalizeSymbol(symbol)

	query := `
		SELECT symbol, date, open, high, low, close, COALESCE(volume, 0)
		FROM daily_candles
		WHERE symbol = ?
		ORDER BY date DESC
	`
	args := []any{symbol}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.historyDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles for %s: %w", symbol, err)
	}
	defer rows.Close()

	var candles []Candle
	for rows.Next() {
		var (
			c    Candle
			date int64
		)
		if err := rows.Scan(&c.Symbol, &date, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle for %s: %w", symbol, err)
		}
		c.Date = time.Unix(date, 0).UTC()
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candles for %s: %w", symbol, err)
	}

	// Query returns newest first for the LIMIT; callers need oldest first.
	for i, j := 0, len(candles)-1; i < j; i, j = i+1, j-1 {
		candles[i], candles[j] = candles[j], candles[i]
	}
	return candles, nil
}

// LatestClose returns the most recent stored close for a symbol, or
// found=false when no history exists.
func (r *HistoryRepository) LatestClose(symbol string) (float64, bool, error) {
	var close float64
	err := r.historyDB.QueryRow(`
		SELECT close FROM daily_candles WHERE symbol = ? ORDER BY date DESC LIMIT 1
	`, domain.NormalizeSymbol(symbol)).Scan(&close)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query latest close for %s: %w", symbol, err)
	}
	return close, true, nil
}

// dateKey truncates a timestamp to midnight UTC for the candle primary key.
func dateKey(t time.Time) int64 {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
}
