package planning

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/modules/lots"
)

// SellPlanner aggregates lots into cumulative sell blocks, highest cost
// first, each block clearing the minimum-profit bar.
type SellPlanner struct {
	cfg Config
	log zerolog.Logger
}

// NewSellPlanner creates a sell planner.
func NewSellPlanner(cfg Config, log zerolog.Logger) *SellPlanner {
	return &SellPlanner{
		cfg: cfg,
		log: log.With().Str("component", "sell_planner").Logger(),
	}
}

// Plan produces the ordered sell recommendations for a position. Lots are
// sorted by cost-per-share descending so the highest-cost (lowest-gain)
// shares sell first, then greedily aggregated into cumulative blocks. A lot
// whose full quantity would drag the block below the minimum profit is
// split: only the share count that keeps the block exactly at the bar is
// taken, and the remainder is not revisited this pass. Empty input or a
// non-positive price yields an empty plan.
func (p *SellPlanner) Plan(annotated []lots.AnnotatedLot, currentPrice, volatilityPct float64) []SellRecommendation {
	if len(annotated) == 0 || currentPrice <= 0 {
		return nil
	}

	sorted := make([]lots.AnnotatedLot, len(annotated))
	copy(sorted, annotated)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CostPerShare > sorted[j].CostPerShare
	})

	minProfitFrac := p.cfg.MinProfitPct / 100
	targetCPS := currentPrice / (1 + minProfitFrac)

	var (
		recs      []SellRecommendation
		cumShares float64
		cumCost   float64
	)
	for _, lot := range sorted {
		sharesTaken := lot.Quantity

		potentialCPS := (cumCost + lot.CostBasisValue) / (cumShares + lot.Quantity)
		profitTarget := potentialCPS * (1 + minProfitFrac)
		if currentPrice < profitTarget {
			sharesTaken = p.sharesToReachTarget(cumCost, cumShares, targetCPS, lot)
			if sharesTaken <= 0 {
				continue
			}
		}

		cumShares += sharesTaken
		cumCost += sharesTaken * lot.CostPerShare

		rec, ok := p.blockRecommendation(cumShares, cumCost, currentPrice, volatilityPct, lot.OpenDate)
		if !ok {
			continue
		}
		recs = append(recs, rec)
	}

	p.log.Debug().
		Float64("price", currentPrice).
		Float64("volatility_pct", volatilityPct).
		Int("lots", len(annotated)).
		Int("recommendations", len(recs)).
		Msg("planned sell tranches")
	return recs
}

// sharesToReachTarget solves for the fractional share count from lot that
// brings the cumulative block's cost-per-share exactly to targetCPS.
// A near-zero denominator (lot cost at the target already) has no useful
// solution and yields 0; the result is clamped to [0, lot.Quantity].
func (p *SellPlanner) sharesToReachTarget(existingCost, existingShares, targetCPS float64, lot lots.AnnotatedLot) float64 {
	denominator := targetCPS - lot.CostPerShare
	if math.Abs(denominator) < p.cfg.SolveEpsilon {
		return 0
	}
	shares := (existingCost - targetCPS*existingShares) / denominator
	if shares < 0 {
		return 0
	}
	if shares > lot.Quantity {
		return lot.Quantity
	}
	return shares
}

// blockRecommendation derives the sale parameters for the current
// cumulative block. The block is suppressed when the price has not reached
// its target or the resulting trailing stop is tighter than the minimum.
func (p *SellPlanner) blockRecommendation(cumShares, cumCost, price, volatilityPct float64, openDate time.Time) (SellRecommendation, bool) {
	if cumShares <= 0 {
		return SellRecommendation{}, false
	}

	breakEven := cumCost / cumShares
	hardExit := breakEven * p.cfg.HardExitMultiple
	spread := p.cfg.SpreadBase + volatilityPct/p.cfg.SpreadATRDivisor
	target := hardExit * (1 + spread)
	if price < target {
		return SellRecommendation{}, false
	}

	entry := (price + target) / 2
	trailingStopPct := (entry - target) / entry * 100
	if trailingStopPct < p.cfg.MinTrailingStopPct {
		return SellRecommendation{}, false
	}

	gainPct := 0.0
	if breakEven != 0 {
		gainPct = (price - breakEven) / breakEven * 100
	}

	return SellRecommendation{
		Shares:          cumShares,
		BreakEven:       breakEven,
		GainPct:         gainPct,
		TrailingStopPct: trailingStopPct,
		Entry:           entry,
		Target:          target,
		Cancel:          hardExit,
		RollingGainLoss: cumShares*price - cumCost,
		Description: fmt.Sprintf("SELL %.2f shares, TS %.1f%%, breakeven %.2f, target %.2f",
			cumShares, trailingStopPct, breakEven, target),
		OpenDate: openDate,
	}, true
}
