// Package indicators implements the fixed technical indicator catalogue as
// pure functions over candle data: each takes ascending-time OHLC points and
// returns a raw value plus a direction-encoded score clamped to [-100,100].
package indicators

import (
	"math"

	"github.com/marketcore/core/internal/domain"
)

// MinBars is the minimum candle count each indicator needs, keyed by
// indicator ID.
var MinBars = map[string]int{
	"sma20":     20,
	"sma50":     50,
	"ema12":     12,
	"ema26":     26,
	"macd":      35,
	"rsi":       14,
	"cci":       20,
	"adx":       29,
	"bollinger": 20,
	"atr":       15,
	"obv":       15,
	"vwap":      20,
}

func clampScore(score float64) int8 {
	if score > 100 {
		score = 100
	}
	if score < -100 {
		score = -100
	}
	return int8(math.Round(score))
}

func direction(score int8) domain.Direction {
	switch {
	case score > 0:
		return domain.Bullish
	case score < 0:
		return domain.Bearish
	default:
		return domain.Neutral
	}
}

func output(id string, category domain.Category, rawValue float64, score float64, tsMs int64) *domain.SignalOutput {
	s := clampScore(score)
	return &domain.SignalOutput{
		IndicatorID: id,
		Category:    category,
		RawValue:    rawValue,
		Score:       s,
		Direction:   direction(s),
		TimestampMs: tsMs,
	}
}

func closes(candles []domain.OhlcPoint) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func typicalPrice(c domain.OhlcPoint) float64 {
	return (c.High + c.Low + c.Close) / 3
}

func sma(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

func meanDeviation(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += math.Abs(v - mean)
	}
	return sum / float64(len(values))
}

// ema computes the full EMA series over values: the first `period` values
// seed an SMA, then each subsequent value is folded in with the standard
// 2/(period+1) multiplier.
func ema(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	multiplier := 2.0 / (float64(period) + 1)
	out := make([]float64, 0, len(values)-period+1)
	seed := sma(values[:period])
	out = append(out, seed)
	prev := seed
	for _, v := range values[period:] {
		prev = (v-prev)*multiplier + prev
		out = append(out, prev)
	}
	return out
}

func trueRange(current, previous domain.OhlcPoint) float64 {
	hl := current.High - current.Low
	hc := math.Abs(current.High - previous.Close)
	lc := math.Abs(current.Low - previous.Close)
	return math.Max(hl, math.Max(hc, lc))
}

// wilderSmooth applies Wilder's smoothing: the first `period` values seed a
// plain average, then each subsequent value is folded in at weight 1/period.
func wilderSmooth(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	seed := sma(values[:period])
	out = append(out, seed)
	prev := seed
	for _, v := range values[period:] {
		prev = (prev*float64(period-1) + v) / float64(period)
		out = append(out, prev)
	}
	return out
}

func lastCandle(candles []domain.OhlcPoint) domain.OhlcPoint {
	return candles[len(candles)-1]
}
