package lots

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/cache"
	"github.com/htomlinson/tranche/internal/domain"
)

// TransactionStore is the ledger access the service needs.
type TransactionStore interface {
	SaveBatch(txs []domain.Transaction) error
	GetBySymbol(symbol string) ([]domain.Transaction, error)
	Symbols() ([]string, error)
}

// SnapshotStore persists resolved snapshots across restarts.
type SnapshotStore interface {
	Save(snap Snapshot) error
	Get(symbol string) (Snapshot, bool, error)
	Delete(symbol string) error
}

// Service resolves and annotates tax lots with a read-through LRU in front
// of the ledger. Resolution is deterministic, so a cached result stays
// valid until new transactions for the symbol arrive.
type Service struct {
	txStore   TransactionStore
	snapStore SnapshotStore
	resolver  *Resolver
	memo      *cache.LRU[Snapshot]
	log       zerolog.Logger
}

// NewService creates a lot service with an in-memory cache of cacheSize symbols.
func NewService(txStore TransactionStore, snapStore SnapshotStore, cacheSize int, log zerolog.Logger) *Service {
	return &Service{
		txStore:   txStore,
		snapStore: snapStore,
		resolver:  NewResolver(log),
		memo:      cache.NewLRU[Snapshot](cacheSize),
		log:       log.With().Str("component", "lot_service").Logger(),
	}
}

// ImportTransactions appends a batch to the ledger and invalidates the
// cached snapshots of every symbol the batch touches.
func (s *Service) ImportTransactions(txs []domain.Transaction) error {
	if err := s.txStore.SaveBatch(txs); err != nil {
		return err
	}

	touched := make(map[string]bool)
	for _, tx := range txs {
		for _, symbol := range tx.Symbols() {
			touched[symbol] = true
		}
	}
	for symbol := range touched {
		s.Invalidate(symbol)
	}

	s.log.Info().
		Int("transactions", len(txs)).
		Int("symbols", len(touched)).
		Msg("imported transactions")
	return nil
}

// OpenLots returns the open tax lots for a symbol, oldest first, resolving
// from the ledger on a cache miss. A symbol with no history yields an
// empty slice, not an error.
func (s *Service) OpenLots(symbol string) ([]TaxLot, error) {
	snap, err := s.snapshot(symbol)
	if err != nil {
		return nil, err
	}
	return snap.Lots, nil
}

// AnnotatedLots resolves the open lots and annotates them against price.
// The snapshot is refreshed with the new price so the persisted copy
// reflects the latest view.
func (s *Service) AnnotatedLots(symbol string, price float64) ([]AnnotatedLot, error) {
	symbol = domain.NormalizeSymbol(symbol)

	snap, err := s.snapshot(symbol)
	if err != nil {
		return nil, err
	}

	if snap.Price != price {
		snap.Price = price
		s.memo.Put(symbol, snap)
	}
	return AnnotateAll(snap.Lots, price), nil
}

// Invalidate drops the cached snapshot for a symbol, both in memory and on
// disk. The next request resolves from the ledger.
func (s *Service) Invalidate(symbol string) {
	symbol = domain.NormalizeSymbol(symbol)
	s.memo.Invalidate(symbol)
	if err := s.snapStore.Delete(symbol); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("failed to delete persisted snapshot")
	}
}

// FlushSnapshots persists every in-memory snapshot to the cache database.
// Called periodically by the scheduler.
func (s *Service) FlushSnapshots() (int, error) {
	flushed := 0
	for _, symbol := range s.memo.Keys() {
		snap, ok := s.memo.Get(symbol)
		if !ok {
			continue
		}
		if err := s.snapStore.Save(snap); err != nil {
			return flushed, fmt.Errorf("failed to flush snapshot for %s: %w", symbol, err)
		}
		flushed++
	}
	return flushed, nil
}

// EvictStale drops in-memory snapshots resolved before the cutoff.
func (s *Service) EvictStale(maxAge time.Duration) int {
	return s.memo.EvictOlderThan(time.Now().Add(-maxAge))
}

// Symbols lists every symbol with ledger history.
func (s *Service) Symbols() ([]string, error) {
	return s.txStore.Symbols()
}

// snapshot returns the current snapshot for a symbol: memory first, then
// the persisted copy, then a full resolve from the ledger.
func (s *Service) snapshot(symbol string) (Snapshot, error) {
	symbol = domain.NormalizeSymbol(symbol)

	if snap, ok := s.memo.Get(symbol); ok {
		return snap, nil
	}

	if snap, found, err := s.snapStore.Get(symbol); err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Msg("snapshot store unavailable, resolving from ledger")
	} else if found {
		s.memo.Put(symbol, snap)
		return snap, nil
	}

	txs, err := s.txStore.GetBySymbol(symbol)
	if err != nil {
		return Snapshot{}, err
	}
	open, err := s.resolver.Resolve(txs, symbol)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Symbol:     symbol,
		Lots:       open,
		ResolvedAt: time.Now(),
	}
	s.memo.Put(symbol, snap)
	return snap, nil
}
