package quotes

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"
)

// atrPeriod is the Wilder smoothing window for the average true range.
const atrPeriod = 14

// ATRPercent computes the 14-day average true range as a percentage of the
// latest close. Candles must be in ascending date order. Returns 0 when
// history is too short for the ATR window - callers fall back to
// StdDevVolatility or skip volatility-dependent adjustments.
func ATRPercent(candles []Candle) float64 {
	if len(candles) < atrPeriod+1 {
		return 0
	}

	high := make([]float64, len(candles))
	low := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
		closes[i] = c.Close
	}

	atr := talib.Atr(high, low, closes, atrPeriod)
	last := atr[len(atr)-1]
	lastClose := closes[len(closes)-1]
	if lastClose <= 0 || math.IsNaN(last) {
		return 0
	}
	return last / lastClose * 100
}

// StdDevVolatility estimates daily volatility as the sample standard
// deviation of log returns, in percent. Used when candle history is too
// thin for a full ATR window but at least a few closes exist.
func StdDevVolatility(candles []Candle) float64 {
	if len(candles) < 3 {
		return 0
	}

	returns := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1].Close, candles[i].Close
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * 100
}

// Volatility returns the best available volatility estimate in percent:
// ATR when the window is full, log-return standard deviation otherwise.
func Volatility(candles []Candle) float64 {
	if v := ATRPercent(candles); v > 0 {
		return v
	}
	return StdDevVolatility(candles)
}
