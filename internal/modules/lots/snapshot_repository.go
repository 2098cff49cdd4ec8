package lots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/htomlinson/tranche/internal/domain"
)

// Snapshot is the persisted result of one lot resolution: the open lots
// and the price they were last annotated against. Snapshots are a warm
// cache only - the ledger remains the source of truth and a snapshot can
// always be rebuilt from it.
type Snapshot struct {
	Symbol     string    `msgpack:"symbol"`
	Lots       []TaxLot  `msgpack:"lots"`
	Price      float64   `msgpack:"price"`
	ResolvedAt time.Time `msgpack:"resolved_at"`
}

// SnapshotRepository persists lot snapshots as msgpack blobs in the cache
// database. The cache database runs with synchronous=OFF, so a crash may
// lose recent snapshots; that only costs a re-resolve.
type SnapshotRepository struct {
	cacheDB *sql.DB
	log     zerolog.Logger
}

// NewSnapshotRepository creates a snapshot repository on the cache database.
func NewSnapshotRepository(cacheDB *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		cacheDB: cacheDB,
		log:     log.With().Str("repo", "lot_snapshot").Logger(),
	}
}

// Save upserts a snapshot for its symbol.
func (r *SnapshotRepository) Save(snap Snapshot) error {
	snap.Symbol = domain.NormalizeSymbol(snap.Symbol)

	payload, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot for %s: %w", snap.Symbol, err)
	}

	_, err = r.cacheDB.Exec(`
		INSERT INTO lot_snapshots (symbol, payload, price, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			payload = excluded.payload,
			price = excluded.price,
			created_at = excluded.created_at
	`, snap.Symbol, payload, snap.Price, snap.ResolvedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", snap.Symbol, err)
	}
	return nil
}

// Get returns the snapshot for a symbol, or found=false when none exists.
func (r *SnapshotRepository) Get(symbol string) (Snapshot, bool, error) {
	symbol = domain.NormalizeSymbol(symbol)

	var payload []byte
	err := r.cacheDB.QueryRow(`
		SELECT payload FROM lot_snapshots WHERE symbol = ?
	`, symbol).Scan(&payload)
	if err == sql.ErrNoRows {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("failed to load snapshot for %s: %w", symbol, err)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(payload, &snap); err != nil {
		// A corrupt blob is not fatal: drop it and force a re-resolve.
		r.log.Warn().Err(err).Str("symbol", symbol).Msg("discarding undecodable snapshot")
		_ = r.Delete(symbol)
		return Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Delete removes the snapshot for a symbol.
func (r *SnapshotRepository) Delete(symbol string) error {
	_, err := r.cacheDB.Exec(`DELETE FROM lot_snapshots WHERE symbol = ?`,
		domain.NormalizeSymbol(symbol))
	if err != nil {
		return fmt.Errorf("failed to delete snapshot for %s: %w", symbol, err)
	}
	return nil
}

// DeleteOlderThan removes snapshots created before the cutoff and returns
// how many were dropped.
func (r *SnapshotRepository) DeleteOlderThan(cutoff time.Time) (int, error) {
	res, err := r.cacheDB.Exec(`DELETE FROM lot_snapshots WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}
