package quotes

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCandleStore struct {
	candles map[string][]Candle
}

func newMockCandleStore() *mockCandleStore {
	return &mockCandleStore{candles: make(map[string][]Candle)}
}

func (m *mockCandleStore) SaveCandles(candles []Candle) error {
	for _, c := range candles {
		m.candles[c.Symbol] = append(m.candles[c.Symbol], c)
	}
	return nil
}

func (m *mockCandleStore) GetCandles(symbol string, limit int) ([]Candle, error) {
	candles := m.candles[symbol]
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (m *mockCandleStore) LatestClose(symbol string) (float64, bool, error) {
	candles := m.candles[symbol]
	if len(candles) == 0 {
		return 0, false, nil
	}
	return candles[len(candles)-1].Close, true, nil
}

func TestServiceEffectivePricePrefersLiveQuote(t *testing.T) {
	store := newMockCandleStore()
	require.NoError(t, store.SaveCandles(flatCandles("AAPL", 5, 95)))
	svc := NewService(store, zerolog.Nop())

	require.NoError(t, svc.UpdateQuote(Quote{Symbol: "aapl", LastPrice: 100}))

	price, found, err := svc.EffectivePrice("AAPL")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 100.0, price)
}

func TestServiceEffectivePriceFallsBackToClose(t *testing.T) {
	store := newMockCandleStore()
	require.NoError(t, store.SaveCandles(flatCandles("AAPL", 5, 95)))
	svc := NewService(store, zerolog.Nop())

	price, found, err := svc.EffectivePrice("AAPL")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 95.0, price)
}

func TestServiceEffectivePriceUnknownSymbol(t *testing.T) {
	svc := NewService(newMockCandleStore(), zerolog.Nop())

	_, found, err := svc.EffectivePrice("ZZZZ")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestServiceRejectsUnusableQuote(t *testing.T) {
	svc := NewService(newMockCandleStore(), zerolog.Nop())

	assert.Error(t, svc.UpdateQuote(Quote{Symbol: "AAPL"}))
	assert.Error(t, svc.UpdateQuote(Quote{LastPrice: 10}))
}

func TestServiceVolatilityPercent(t *testing.T) {
	store := newMockCandleStore()
	candles := flatCandles("NVDA", 40, 100)
	for i := range candles {
		candles[i].High = 103
		candles[i].Low = 97
	}
	require.NoError(t, store.SaveCandles(candles))
	svc := NewService(store, zerolog.Nop())

	v, err := svc.VolatilityPercent("NVDA")
	require.NoError(t, err)
	assert.InDelta(t, 6.0, v, 0.5)
}

func TestServiceQuoteDefaultsAsOf(t *testing.T) {
	svc := NewService(newMockCandleStore(), zerolog.Nop())

	require.NoError(t, svc.UpdateQuote(Quote{Symbol: "AAPL", LastPrice: 10}))
	q, ok := svc.Quote("AAPL")
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), q.AsOf, time.Minute)
}
