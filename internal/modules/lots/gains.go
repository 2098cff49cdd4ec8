package lots

// Annotate derives gain/loss figures for a lot against a current price.
// Pure arithmetic: a zero-cost lot reports 0% rather than dividing by zero.
func Annotate(lot TaxLot, price float64) AnnotatedLot {
	costBasis := lot.Quantity * lot.CostPerShare
	marketValue := lot.Quantity * price
	gainDollar := marketValue - costBasis

	gainPct := 0.0
	if costBasis != 0 {
		gainPct = gainDollar / costBasis * 100
	}

	return AnnotatedLot{
		TaxLot:         lot,
		Price:          price,
		MarketValue:    marketValue,
		CostBasisValue: costBasis,
		GainLossDollar: gainDollar,
		GainLossPct:    gainPct,
	}
}

// AnnotateAll annotates every lot against the same price, preserving order.
func AnnotateAll(open []TaxLot, price float64) []AnnotatedLot {
	annotated := make([]AnnotatedLot, len(open))
	for i, lot := range open {
		annotated[i] = Annotate(lot, price)
	}
	return annotated
}
