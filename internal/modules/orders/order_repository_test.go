package orders

import (
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/htomlinson/tranche/internal/domain"
)

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE orders (
			id          TEXT PRIMARY KEY,
			symbol      TEXT NOT NULL,
			side        TEXT NOT NULL,
			quantity    REAL NOT NULL,
			limit_price REAL,
			status      TEXT NOT NULL DEFAULT 'OPEN',
			created_at  INTEGER NOT NULL
		)
	`)
	require.NoError(t, err)

	return db
}

func TestOrderCreateAssignsID(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), zerolog.Nop())

	created, err := repo.Create(OpenOrder{
		Symbol:   "aapl",
		Side:     domain.OrderSideSell,
		Quantity: 25,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "AAPL", created.Symbol)
	assert.Equal(t, OrderStatusOpen, created.Status)
}

func TestOrderCreateRejectsInvalid(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Create(OpenOrder{Symbol: "AAPL", Side: "SHORT", Quantity: 1})
	assert.Error(t, err)

	_, err = repo.Create(OpenOrder{Symbol: "AAPL", Side: domain.OrderSideBuy, Quantity: 0})
	assert.Error(t, err)
}

func TestCommittedQuantitySumsOpenSells(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Create(OpenOrder{Symbol: "AAPL", Side: domain.OrderSideSell, Quantity: 10})
	require.NoError(t, err)
	_, err = repo.Create(OpenOrder{Symbol: "AAPL", Side: domain.OrderSideSell, Quantity: 5.5})
	require.NoError(t, err)
	// Open buys and other symbols must not count.
	_, err = repo.Create(OpenOrder{Symbol: "AAPL", Side: domain.OrderSideBuy, Quantity: 100})
	require.NoError(t, err)
	_, err = repo.Create(OpenOrder{Symbol: "MSFT", Side: domain.OrderSideSell, Quantity: 7})
	require.NoError(t, err)

	committed, err := repo.CommittedQuantity("AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 15.5, committed, 1e-9)
}

func TestCommittedQuantityIgnoresClosedOrders(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), zerolog.Nop())

	created, err := repo.Create(OpenOrder{Symbol: "AAPL", Side: domain.OrderSideSell, Quantity: 10})
	require.NoError(t, err)

	found, err := repo.UpdateStatus(created.ID, OrderStatusCancelled)
	require.NoError(t, err)
	assert.True(t, found)

	committed, err := repo.CommittedQuantity("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 0.0, committed)
}

func TestCommittedQuantityEmptyBook(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), zerolog.Nop())

	committed, err := repo.CommittedQuantity("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 0.0, committed)
}

func TestGetOpenBySymbol(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), zerolog.Nop())

	_, err := repo.Create(OpenOrder{Symbol: "AAPL", Side: domain.OrderSideSell, Quantity: 10, LimitPrice: 150})
	require.NoError(t, err)
	filled, err := repo.Create(OpenOrder{Symbol: "AAPL", Side: domain.OrderSideBuy, Quantity: 2})
	require.NoError(t, err)
	_, err = repo.UpdateStatus(filled.ID, OrderStatusFilled)
	require.NoError(t, err)

	open, err := repo.GetOpenBySymbol("AAPL")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, domain.OrderSideSell, open[0].Side)
	assert.Equal(t, 150.0, open[0].LimitPrice)
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	repo := NewOrderRepository(setupTestDB(t), zerolog.Nop())

	found, err := repo.UpdateStatus("no-such-id", OrderStatusCancelled)
	require.NoError(t, err)
	assert.False(t, found)
}
