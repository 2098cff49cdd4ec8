package planning

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htomlinson/tranche/internal/domain"
	"github.com/htomlinson/tranche/internal/modules/lots"
)

type stubLotSource struct {
	txs map[string][]domain.Transaction
}

func (s *stubLotSource) AnnotatedLots(symbol string, price float64) ([]lots.AnnotatedLot, error) {
	resolver := lots.NewResolver(zerolog.Nop())
	open, err := resolver.Resolve(s.txs[domain.NormalizeSymbol(symbol)], symbol)
	if err != nil {
		return nil, err
	}
	return lots.AnnotateAll(open, price), nil
}

type stubPriceSource struct {
	price      float64
	found      bool
	volatility float64
}

func (s stubPriceSource) EffectivePrice(string) (float64, bool, error) {
	return s.price, s.found, nil
}

func (s stubPriceSource) VolatilityPercent(string) (float64, error) {
	return s.volatility, nil
}

type stubCommitments struct {
	committed float64
}

func (s stubCommitments) CommittedQuantity(string) (float64, error) {
	return s.committed, nil
}

func buyTx(id int64, dayN int, symbol string, qty, price float64) domain.Transaction {
	return domain.Transaction{
		ActivityID: id,
		TradeDate:  day(dayN),
		Type:       domain.TransactionTypeTrade,
		TransferItems: []domain.TransferItem{
			{Symbol: symbol, Amount: qty, Price: price},
		},
	}
}

func TestServiceEndToEndTwoLotScenario(t *testing.T) {
	// Buy 100 @ $10 on day 1, buy 50 @ $12 on day 30, price $20,
	// volatility 2%: resolution yields two open lots, and the first sell
	// tranche aggregates the $12 lot alone.
	lotSource := &stubLotSource{txs: map[string][]domain.Transaction{
		"AAPL": {
			buyTx(1, 1, "AAPL", 100, 10),
			buyTx(2, 30, "AAPL", 50, 12),
		},
	}}
	svc := NewService(lotSource,
		stubPriceSource{price: 20, found: true, volatility: 2},
		stubCommitments{}, DefaultConfig(), zerolog.Nop())

	recs, err := svc.PlanSell("AAPL")
	require.NoError(t, err)
	require.NotEmpty(t, recs)
	assert.InDelta(t, 50.0, recs[0].Shares, 1e-9)
	assert.InDelta(t, 12.0, recs[0].BreakEven, 1e-9)
	assert.Greater(t, recs[0].Target, recs[0].BreakEven)
	assert.NotEmpty(t, recs[0].Description)

	buy, err := svc.PlanBuy("AAPL")
	require.NoError(t, err)
	require.NotNil(t, buy)
	assert.Greater(t, buy.Shares, 0.0)
	assert.LessOrEqual(t, buy.OrderCost, 2000.0)
}

func TestServiceNoPriceMeansNothingToPlan(t *testing.T) {
	svc := NewService(&stubLotSource{txs: map[string][]domain.Transaction{}},
		stubPriceSource{}, stubCommitments{}, DefaultConfig(), zerolog.Nop())

	recs, err := svc.PlanSell("AAPL")
	require.NoError(t, err)
	assert.Empty(t, recs)

	buy, err := svc.PlanBuy("AAPL")
	require.NoError(t, err)
	assert.Nil(t, buy)
}

func TestServicePropagatesResolutionErrors(t *testing.T) {
	lotSource := &stubLotSource{txs: map[string][]domain.Transaction{
		"AAPL": {
			buyTx(1, 1, "AAPL", 10, 10),
			{
				ActivityID: 2,
				TradeDate:  day(2),
				Type:       domain.TransactionTypeTrade,
				TransferItems: []domain.TransferItem{
					{Symbol: "AAPL", Amount: -50, Price: 12},
				},
			},
		},
	}}
	svc := NewService(lotSource,
		stubPriceSource{price: 12, found: true, volatility: 2},
		stubCommitments{}, DefaultConfig(), zerolog.Nop())

	_, err := svc.PlanSell("AAPL")
	require.Error(t, err)
	assert.ErrorIs(t, err, lots.ErrOversold)
}

func TestServiceSharesAvailableSubtractsCommitted(t *testing.T) {
	lotSource := &stubLotSource{txs: map[string][]domain.Transaction{
		"AAPL": {buyTx(1, 1, "AAPL", 100, 10)},
	}}
	svc := NewService(lotSource,
		stubPriceSource{price: 15, found: true, volatility: 2},
		stubCommitments{committed: 30}, DefaultConfig(), zerolog.Nop())

	available, err := svc.SharesAvailable("AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 70.0, available, 1e-9)
}
