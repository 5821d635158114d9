package indicators

import "github.com/marketcore/core/internal/domain"

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// MACD: the histogram (MACD line minus its signal line) in basis points of
// price, multiplied by -1 when the histogram fell since the prior bar and by
// +1 otherwise.
func MACD(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput {
	if len(candles) < macdSlow+macdSignal {
		return nil
	}

	series := closes(candles)
	fastEMA := ema(series, macdFast)
	slowEMA := ema(series, macdSlow)
	if len(fastEMA) == 0 || len(slowEMA) == 0 {
		return nil
	}

	offset := macdSlow - macdFast
	if offset >= len(fastEMA) {
		return nil
	}
	fastEMA = fastEMA[offset:]

	n := len(slowEMA)
	if len(fastEMA) < n {
		n = len(fastEMA)
	}
	macdLine := make([]float64, n)
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	if len(macdLine) < macdSignal {
		return nil
	}

	signalLine := ema(macdLine, macdSignal)
	if len(signalLine) == 0 {
		return nil
	}

	histogram := macdLine[len(macdLine)-1] - signalLine[len(signalLine)-1]

	prevHistogram := histogram
	if len(macdLine) > 1 && len(signalLine) > 1 {
		prevHistogram = macdLine[len(macdLine)-2] - signalLine[len(signalLine)-2]
	}

	direction := 1.0
	if histogram < prevHistogram {
		direction = -1.0
	}

	price := lastCandle(candles).Close
	if price == 0 {
		return nil
	}
	normalizedHistogram := histogram / price * 10_000 // basis points
	score := normalizedHistogram * direction

	return output("macd", domain.Trend, histogram, score, tsMs)
}
