package planning

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/modules/lots"
)

// BuyPlanner sizes a single add-to-position order. The required gain scales
// with volatility and the order only triggers above the current price, so a
// position is never averaged up indiscriminately: the better the position
// already looks, the further price must run before the add fires.
type BuyPlanner struct {
	cfg Config
	log zerolog.Logger
}

// NewBuyPlanner creates a buy planner.
func NewBuyPlanner(cfg Config, log zerolog.Logger) *BuyPlanner {
	return &BuyPlanner{
		cfg: cfg,
		log: log.With().Str("component", "buy_planner").Logger(),
	}
}

// Plan produces the buy recommendation for a position, or nil when inputs
// are insufficient: no open lots, nothing available to commit, a
// non-positive price, or an order that cannot fit the cost ceiling.
func (p *BuyPlanner) Plan(symbol string, volatilityPct float64, annotated []lots.AnnotatedLot, sharesAvailable, currentPrice float64) *BuyRecommendation {
	if len(annotated) == 0 || sharesAvailable <= 0 || currentPrice <= 0 {
		return nil
	}

	totalShares := lots.TotalQuantity(annotated)
	totalCost := lots.TotalCostBasis(annotated)
	if totalShares <= 0 {
		return nil
	}

	targetGainPct := clamp(p.cfg.BuyGainMultiple*volatilityPct, p.cfg.MinTargetGainPct, p.cfg.MaxTargetGainPct)

	currentGainPct := 0.0
	if totalCost != 0 {
		currentGainPct = (totalShares*currentPrice - totalCost) / totalCost * 100
	}

	shares := math.Floor(totalShares * (currentGainPct / 2) / 100)
	if shares < 1 {
		shares = 1
	}
	if shares > sharesAvailable {
		shares = sharesAvailable
	}

	target := p.targetBuyPrice(totalShares, totalCost, shares, targetGainPct)
	target = clamp(target, currentPrice*p.cfg.MinBuyMultiple, currentPrice*p.cfg.MaxBuyMultiple)

	cost := shares * target
	if cost > p.cfg.MaxOrderCost {
		shares = math.Floor(p.cfg.MaxOrderCost / target)
		if shares < 1 {
			return nil
		}
		cost = shares * target
	}

	rec := &BuyRecommendation{
		Shares:          shares,
		TargetBuyPrice:  target,
		EntryPrice:      target * (1 - volatilityPct/100),
		TrailingStopPct: volatilityPct,
		TargetGainPct:   targetGainPct,
		CurrentGainPct:  currentGainPct,
		OrderCost:       cost,
		Description: fmt.Sprintf("BUY %.0f %s, TS %.1f%%, target %.2f",
			shares, symbol, volatilityPct, target),
	}

	p.log.Debug().
		Str("symbol", symbol).
		Float64("shares", shares).
		Float64("target", target).
		Float64("order_cost", cost).
		Msg("planned buy order")
	return rec
}

// targetBuyPrice solves for the price at which the post-buy position shows
// the target gain: shares bought at that price raise the average cost, so
// the price must clear the raised average by the target fraction. Falls
// back to the current average cost scaled by the gain when the solve
// degenerates.
func (p *BuyPlanner) targetBuyPrice(totalShares, totalCost, buyShares, targetGainPct float64) float64 {
	ratio := 1 + targetGainPct/100
	denominator := (totalShares + buyShares) - buyShares*ratio
	if math.Abs(denominator) < p.cfg.SolveEpsilon {
		return totalCost / totalShares * ratio
	}
	return totalCost * ratio / denominator
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
