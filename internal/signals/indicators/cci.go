package indicators

import "github.com/marketcore/core/internal/domain"

const cciPeriod = 20

// CCI: typical-price deviation from its average, in units of 0.015x mean
// deviation. Below -100 (oversold) reads bullish, above +100 (overbought)
// reads bearish.
func CCI(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput {
	if len(candles) < cciPeriod {
		return nil
	}
	tail := candles[len(candles)-cciPeriod:]

	typicalPrices := make([]float64, len(tail))
	for i, c := range tail {
		typicalPrices[i] = typicalPrice(c)
	}
	mean := sma(typicalPrices)
	meanDev := meanDeviation(typicalPrices, mean)

	currentTP := typicalPrice(lastCandle(candles))
	var cci float64
	if meanDev != 0 {
		cci = (currentTP - mean) / (0.015 * meanDev)
	}

	var score float64
	switch {
	case cci <= -100:
		score = minFloat((-100-cci)/100*50+50, 100)
	case cci >= 100:
		score = maxFloat(-((cci-100)/100*50+50), -100)
	default:
		score = -cci / 100 * 50
	}

	return output("cci", domain.Momentum, cci, score, tsMs)
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
