package indicators

import "github.com/marketcore/core/internal/domain"

const vwapPeriod = 20

// VWAP: price above the volume-weighted average reads bullish
// (institutional buying), below reads bearish. A 3% deviation saturates the
// score.
func VWAP(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput {
	if len(candles) < vwapPeriod {
		return nil
	}
	tail := candles[len(candles)-vwapPeriod:]

	var cumTPVol, cumVol float64
	for _, c := range tail {
		vol := c.Volume
		if vol == 0 {
			vol = 1
		}
		cumTPVol += typicalPrice(c) * vol
		cumVol += vol
	}

	vwap := lastCandle(candles).Close
	if cumVol > 0 {
		vwap = cumTPVol / cumVol
	}
	if vwap == 0 {
		return nil
	}

	price := lastCandle(candles).Close
	pctDiff := (price - vwap) / vwap * 100
	score := pctDiff * 33

	return output("vwap", domain.Volume, vwap, score, tsMs)
}
