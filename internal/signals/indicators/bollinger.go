package indicators

import "github.com/marketcore/core/internal/domain"

const (
	bollingerPeriod    = 20
	bollingerStdDevMul = 2.0
)

// Bollinger: %B position of price within the bands. Below the lower band
// (%B ≤ 0) is a strong bullish reading, above the upper band (%B ≥ 1) a
// strong bearish one.
func Bollinger(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput {
	if len(candles) < bollingerPeriod {
		return nil
	}
	tail := closes(candles)[len(candles)-bollingerPeriod:]

	middle := sma(tail)
	dev := stdDev(tail, middle)
	upper := middle + bollingerStdDevMul*dev
	lower := middle - bollingerStdDevMul*dev
	bandWidth := upper - lower

	price := lastCandle(candles).Close
	percentB := 0.5
	if bandWidth > 0 {
		percentB = (price - lower) / bandWidth
	}

	var score float64
	switch {
	case percentB <= 0:
		score = 100
	case percentB >= 1:
		score = -100
	default:
		score = (0.5 - percentB) * 200
	}

	return output("bollinger", domain.Volatility, percentB*100, score, tsMs)
}
