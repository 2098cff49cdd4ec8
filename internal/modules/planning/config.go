package planning

// Config carries the tunable thresholds for both planners. Values are
// percentages unless named otherwise.
type Config struct {
	// MinProfitPct is the minimum gain a cumulative sell block must clear.
	MinProfitPct float64
	// HardExitMultiple scales the block's breakeven into its hard exit floor.
	HardExitMultiple float64
	// SpreadBase and SpreadATRDivisor shape the volatility-driven spread
	// between hard exit and target: spread = SpreadBase + vol/SpreadATRDivisor.
	SpreadBase       float64
	SpreadATRDivisor float64
	// MinTrailingStopPct suppresses recommendations whose stop is too tight
	// to be actionable.
	MinTrailingStopPct float64
	// SolveEpsilon is the denominator guard for the lot-split linear solve.
	SolveEpsilon float64

	// BuyGainMultiple scales volatility into the buy target gain, which is
	// then clamped to [MinTargetGainPct, MaxTargetGainPct].
	BuyGainMultiple  float64
	MinTargetGainPct float64
	MaxTargetGainPct float64
	// MinBuyMultiple/MaxBuyMultiple bound the target buy price relative to
	// the current price.
	MinBuyMultiple float64
	MaxBuyMultiple float64
	// MaxOrderCost is the dollar ceiling for a single buy order.
	MaxOrderCost float64
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		MinProfitPct:       5.0,
		HardExitMultiple:   1.03,
		SpreadBase:         0.02,
		SpreadATRDivisor:   200,
		MinTrailingStopPct: 1.0,
		SolveEpsilon:       0.001,

		BuyGainMultiple:  5.0,
		MinTargetGainPct: 5.0,
		MaxTargetGainPct: 35.0,
		MinBuyMultiple:   1.05,
		MaxBuyMultiple:   1.30,
		MaxOrderCost:     2000,
	}
}
