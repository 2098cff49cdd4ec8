package planning

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htomlinson/tranche/internal/modules/lots"
)

func annotatedLot(date time.Time, qty, costPerShare, price float64) lots.AnnotatedLot {
	return lots.Annotate(lots.TaxLot{
		OpenDate:      date,
		Quantity:      qty,
		CostPerShare:  costPerShare,
		SplitMultiple: 1,
	}, price)
}

func TestSellPlanEmptyInput(t *testing.T) {
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())

	assert.Empty(t, p.Plan(nil, 100, 2))
	assert.Empty(t, p.Plan([]lots.AnnotatedLot{annotatedLot(time.Now(), 1, 10, 0)}, 0, 2))
}

func TestSellPlanTwoLotScenario(t *testing.T) {
	// Buy 100 @ $10, buy 50 @ $12, price $20, volatility 2%. The $12 lot
	// sorts first; the first recommendation covers it alone at breakeven 12.
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())
	price := 20.0
	open := []lots.AnnotatedLot{
		annotatedLot(day(1), 100, 10, price),
		annotatedLot(day(30), 50, 12, price),
	}

	recs := p.Plan(open, price, 2.0)
	require.Len(t, recs, 2)

	first := recs[0]
	assert.InDelta(t, 50.0, first.Shares, 1e-9)
	assert.InDelta(t, 12.0, first.BreakEven, 1e-9)
	assert.Greater(t, first.Target, first.BreakEven)
	assert.Greater(t, first.TrailingStopPct, 0.0)
	assert.Equal(t, day(30), first.OpenDate)

	// Second block aggregates both lots: 150 shares at breakeven 10.67.
	second := recs[1]
	assert.InDelta(t, 150.0, second.Shares, 1e-9)
	assert.InDelta(t, (50*12.0+100*10.0)/150, second.BreakEven, 1e-9)
}

func TestSellPlanBlockParameters(t *testing.T) {
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())
	price := 20.0
	open := []lots.AnnotatedLot{annotatedLot(day(0), 50, 12, price)}

	recs := p.Plan(open, price, 2.0)
	require.Len(t, recs, 1)
	rec := recs[0]

	hardExit := 12.0 * 1.03
	spread := 0.02 + 2.0/200
	target := hardExit * (1 + spread)
	entry := (price + target) / 2

	assert.InDelta(t, hardExit, rec.Cancel, 1e-9)
	assert.InDelta(t, target, rec.Target, 1e-9)
	assert.InDelta(t, entry, rec.Entry, 1e-9)
	assert.InDelta(t, (entry-target)/entry*100, rec.TrailingStopPct, 1e-9)
	assert.InDelta(t, 50*price-50*12, rec.RollingGainLoss, 1e-9)
}

func TestSellPlanSuppressesTightTrailingStop(t *testing.T) {
	// Price barely above target: entry hugs target and the stop lands
	// under 1%, so the block is suppressed rather than zero-filled.
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())

	hardExit := 10.0 * 1.03
	target := hardExit * (1 + 0.02) // volatility 0
	price := target * 1.01

	open := []lots.AnnotatedLot{annotatedLot(day(0), 100, 10, price)}
	recs := p.Plan(open, price, 0)
	assert.Empty(t, recs)
}

func TestSellPlanTrailingStopNeverBelowMinimum(t *testing.T) {
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())
	open := []lots.AnnotatedLot{
		annotatedLot(day(0), 100, 10, 25),
		annotatedLot(day(1), 40, 14, 25),
		annotatedLot(day(2), 10, 21, 25),
	}

	for _, rec := range p.Plan(open, 25, 3.5) {
		assert.GreaterOrEqual(t, rec.TrailingStopPct, 1.0)
	}
}

func TestSellPlanBreakEvenNonIncreasing(t *testing.T) {
	// Highest-cost lots aggregate first, so each later block folds in
	// cheaper shares and the cumulative breakeven can only fall.
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())
	price := 50.0
	open := []lots.AnnotatedLot{
		annotatedLot(day(0), 30, 20, price),
		annotatedLot(day(1), 20, 35, price),
		annotatedLot(day(2), 10, 28, price),
	}

	recs := p.Plan(open, price, 2.0)
	require.NotEmpty(t, recs)
	for i := 1; i < len(recs); i++ {
		assert.LessOrEqual(t, recs[i].BreakEven, recs[i-1].BreakEven+1e-9)
		assert.Greater(t, recs[i].Shares, recs[i-1].Shares)
	}
}

func TestSellPlanLotSplitReachesProfitBar(t *testing.T) {
	// Existing block 10 sh @ $10, new lot 100 sh @ $8, price $9: the solve
	// takes just enough of the cheap lot to pin the block's average cost
	// at price/1.05, i.e. a 5% gain within 0.1%.
	cfg := DefaultConfig()
	p := NewSellPlanner(cfg, zerolog.Nop())
	price := 9.0
	targetCPS := price / 1.05

	newLot := annotatedLot(day(1), 100, 8, price)
	shares := p.sharesToReachTarget(100.0, 10.0, targetCPS, newLot)
	require.Greater(t, shares, 0.0)
	require.LessOrEqual(t, shares, newLot.Quantity)

	avgCost := (100.0 + shares*8) / (10.0 + shares)
	gain := (price - avgCost) / avgCost * 100
	assert.InDelta(t, 5.0, gain, 0.1*5.0/100)
}

func TestSellPlanSolveDenominatorGuard(t *testing.T) {
	// Lot cost sits exactly at the target cost-per-share: no share count
	// can move the average, so the solve reports no solution.
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())
	targetCPS := 9.0 / 1.05

	lot := annotatedLot(day(0), 100, targetCPS, 9)
	assert.Equal(t, 0.0, p.sharesToReachTarget(100, 10, targetCPS, lot))
}

func TestSellPlanSolveClampsToLotQuantity(t *testing.T) {
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())
	targetCPS := 9.0 / 1.05

	// Tiny lot: the unclamped solution exceeds its quantity.
	lot := annotatedLot(day(0), 2, 8, 9)
	shares := p.sharesToReachTarget(1000, 100, targetCPS, lot)
	assert.InDelta(t, 2.0, shares, 1e-9)
}

func TestSellPlanRemainderNotRevisited(t *testing.T) {
	// After a partial take from the cheap lot, its remainder must not leak
	// into any later block in the same pass.
	p := NewSellPlanner(DefaultConfig(), zerolog.Nop())
	price := 9.0
	open := []lots.AnnotatedLot{
		annotatedLot(day(0), 10, 10, price), // underwater, sorts first
		annotatedLot(day(1), 100, 8, price),
	}

	recs := p.Plan(open, price, 2.0)
	var maxShares float64
	for _, rec := range recs {
		if rec.Shares > maxShares {
			maxShares = rec.Shares
		}
	}
	assert.Less(t, maxShares, 110.0, "cumulative shares must exclude the skipped remainder")
}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}
