package indicators

import "github.com/marketcore/core/internal/domain"

// EMA12/EMA26: like SMA but weighted toward recent prices. Same
// direction/scaling convention as SMA.
func EMA(candles []domain.OhlcPoint, period int, id string, tsMs int64) *domain.SignalOutput {
	series := ema(closes(candles), period)
	if series == nil {
		return nil
	}
	value := series[len(series)-1]
	if value == 0 {
		return nil
	}

	price := lastCandle(candles).Close
	pctDiff := (price - value) / value * 100
	score := pctDiff * 20

	return output(id, domain.Trend, value, score, tsMs)
}

func EMA12(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput { return EMA(candles, 12, "ema12", tsMs) }
func EMA26(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput { return EMA(candles, 26, "ema26", tsMs) }
