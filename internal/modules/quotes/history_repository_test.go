package quotes

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupHistoryDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE daily_candles (
			symbol  TEXT NOT NULL,
			date    INTEGER NOT NULL,
			open    REAL NOT NULL,
			high    REAL NOT NULL,
			low     REAL NOT NULL,
			close   REAL NOT NULL,
			volume  INTEGER,
			PRIMARY KEY (symbol, date)
		)
	`)
	require.NoError(t, err)

	return db
}

func TestHistorySaveAndGetAscending(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t), zerolog.Nop())

	require.NoError(t, repo.SaveCandles(flatCandles("AAPL", 5, 100)))

	got, err := repo.GetCandles("aapl", 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i].Date.After(got[i-1].Date), "candles must come back oldest first")
	}
}

func TestHistoryGetCandlesLimitKeepsNewest(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t), zerolog.Nop())

	candles := flatCandles("AAPL", 10, 100)
	require.NoError(t, repo.SaveCandles(candles))

	got, err := repo.GetCandles("AAPL", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, candles[7].Date.Unix(), got[0].Date.Unix())
	assert.Equal(t, candles[9].Date.Unix(), got[2].Date.Unix())
}

func TestHistoryUpsertOverwrites(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t), zerolog.Nop())

	day := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	first := Candle{Symbol: "AAPL", Date: day, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	require.NoError(t, repo.SaveCandles([]Candle{first}))

	corrected := first
	corrected.Close = 1.8
	require.NoError(t, repo.SaveCandles([]Candle{corrected}))

	got, err := repo.GetCandles("AAPL", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 1.8, got[0].Close, 1e-9)
}

func TestHistoryLatestClose(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t), zerolog.Nop())

	_, found, err := repo.LatestClose("AAPL")
	require.NoError(t, err)
	assert.False(t, found)

	candles := flatCandles("AAPL", 3, 100)
	candles[2].Close = 104
	require.NoError(t, repo.SaveCandles(candles))

	close, found, err := repo.LatestClose("AAPL")
	require.NoError(t, err)
	assert.True(t, found)
	assert.InDelta(t, 104.0, close, 1e-9)
}

func TestHistoryRejectsUnkeyedCandle(t *testing.T) {
	repo := NewHistoryRepository(setupHistoryDB(t), zerolog.Nop())

	err := repo.SaveCandles([]Candle{{Symbol: "", Close: 1}})
	assert.Error(t, err)
}
