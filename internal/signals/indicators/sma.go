package indicators

import "github.com/marketcore/core/internal/domain"

// SMA20/SMA50: price above the average is bullish, below is bearish. A 5%
// deviation saturates the score.
func SMA(candles []domain.OhlcPoint, period int, id string, tsMs int64) *domain.SignalOutput {
	if len(candles) < period {
		return nil
	}
	tail := closes(candles)[len(candles)-period:]
	avg := sma(tail)
	if avg == 0 {
		return nil
	}

	price := lastCandle(candles).Close
	pctDiff := (price - avg) / avg * 100
	score := pctDiff * 20

	return output(id, domain.Trend, avg, score, tsMs)
}

func SMA20(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput { return SMA(candles, 20, "sma20", tsMs) }
func SMA50(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput { return SMA(candles, 50, "sma50", tsMs) }
