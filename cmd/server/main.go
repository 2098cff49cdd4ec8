// Package main is the entry point for the tranche tax-lot and
// order-recommendation engine. It wires the three-database layout
// (ledger, history, cache), the module services, the HTTP API, and the
// background jobs, then blocks until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/config"
	"github.com/htomlinson/tranche/internal/database"
	"github.com/htomlinson/tranche/internal/modules/lots"
	lotshandlers "github.com/htomlinson/tranche/internal/modules/lots/handlers"
	"github.com/htomlinson/tranche/internal/modules/orders"
	ordershandlers "github.com/htomlinson/tranche/internal/modules/orders/handlers"
	"github.com/htomlinson/tranche/internal/modules/planning"
	planninghandlers "github.com/htomlinson/tranche/internal/modules/planning/handlers"
	"github.com/htomlinson/tranche/internal/modules/quotes"
	quoteshandlers "github.com/htomlinson/tranche/internal/modules/quotes/handlers"
	"github.com/htomlinson/tranche/internal/scheduler"
	"github.com/htomlinson/tranche/internal/server"
	"github.com/htomlinson/tranche/pkg/logger"
)

// snapshotMaxAge is how long an untouched in-memory snapshot survives
// before the eviction job drops it.
const snapshotMaxAge = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting tranche")

	// Three-database layout: the ledger is the durable source of truth,
	// history holds daily candles, cache holds recomputable snapshots.
	ledgerDB := mustOpen(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	defer ledgerDB.Close()

	historyDB := mustOpen(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	defer historyDB.Close()

	cacheDB := mustOpen(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	defer cacheDB.Close()

	// Repositories and services.
	txRepo := lots.NewTransactionRepository(ledgerDB.Conn(), log)
	snapRepo := lots.NewSnapshotRepository(cacheDB.Conn(), log)
	lotService := lots.NewService(txRepo, snapRepo, cfg.LotCacheSize, log)

	historyRepo := quotes.NewHistoryRepository(historyDB.Conn(), log)
	quoteService := quotes.NewService(historyRepo, log)

	orderRepo := orders.NewOrderRepository(ledgerDB.Conn(), log)

	planService := planning.NewService(lotService, quoteService, orderRepo,
		planning.DefaultConfig(), log)

	// Background jobs.
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.FlushCron, scheduler.NewSnapshotFlushJob(lotService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot flush job")
	}
	if err := sched.AddJob(cfg.EvictCron, scheduler.NewCacheEvictJob(lotService, snapshotMaxAge, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache evict job")
	}
	if err := sched.AddJob("@hourly", scheduler.NewWALCheckpointJob(log, ledgerDB, historyDB, cacheDB)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register WAL checkpoint job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server.
	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		LedgerDB:  ledgerDB,
		HistoryDB: historyDB,
		CacheDB:   cacheDB,

		LotHandlers:      lotshandlers.NewLotHandlers(lotService, quoteService, log),
		QuoteHandlers:    quoteshandlers.NewQuoteHandlers(quoteService, log),
		PlanningHandlers: planninghandlers.NewPlanningHandlers(planService, log),
		OrderHandlers:    ordershandlers.NewOrderHandlers(orderRepo, log),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	// Flush what the scheduler would have flushed on its next tick.
	if _, err := lotService.FlushSnapshots(); err != nil {
		log.Warn().Err(err).Msg("Final snapshot flush failed")
	}

	log.Info().Msg("Shutdown complete")
}

// mustOpen opens and migrates a database, exiting on failure: the engine
// cannot run with a missing store.
func mustOpen(log zerolog.Logger, cfg database.Config) *database.DB {
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to migrate database")
	}
	log.Info().Str("database", cfg.Name).Str("path", cfg.Path).Msg("Database ready")
	return db
}
