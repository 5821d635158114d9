package indicators

import "github.com/marketcore/core/internal/domain"

const atrPeriod = 14

// ATR: volatility level rather than direction. Elevated volatility relative
// to its own recent average reads slightly bearish (uncertainty); below
// average reads slightly bullish (consolidation).
func ATR(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput {
	if len(candles) < atrPeriod+1 {
		return nil
	}

	trueRanges := make([]float64, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		trueRanges[i-1] = trueRange(candles[i], candles[i-1])
	}

	atrSeries := wilderSmooth(trueRanges, atrPeriod)
	if len(atrSeries) == 0 {
		return nil
	}
	atr := atrSeries[len(atrSeries)-1]

	price := lastCandle(candles).Close
	if price == 0 {
		return nil
	}
	atrPct := atr / price * 100

	lookback := atrPeriod * 2
	avgTR := atr
	if len(trueRanges) >= lookback {
		tail := trueRanges[len(trueRanges)-lookback:]
		avgTR = sma(tail)
	}
	avgATRPct := avgTR / price * 100

	var relativeVol float64
	if avgATRPct > 0 {
		relativeVol = (atrPct/avgATRPct - 1) * 100
	}
	relativeVol = clampRange(relativeVol, -50, 50)
	score := -relativeVol

	return output("atr", domain.Volatility, atrPct, score, tsMs)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
