package indicators

import "github.com/marketcore/core/internal/domain"

const rsiPeriod = 14

// RSI: Wilder-smoothed relative strength, mapped so oversold (RSI low) reads
// bullish and overbought (RSI high) reads bearish.
func RSI(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput {
	if len(candles) < rsiPeriod+1 {
		return nil
	}
	values := closes(candles)

	changes := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		changes[i-1] = values[i] - values[i-1]
	}

	gains := make([]float64, len(changes))
	losses := make([]float64, len(changes))
	for i, c := range changes {
		if c > 0 {
			gains[i] = c
		} else {
			losses[i] = -c
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < rsiPeriod; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= rsiPeriod
	avgLoss /= rsiPeriod

	alpha := 1.0 / rsiPeriod
	for i := rsiPeriod; i < len(changes); i++ {
		avgGain = avgGain*(1-alpha) + gains[i]*alpha
		avgLoss = avgLoss*(1-alpha) + losses[i]*alpha
	}

	var rsi float64
	if avgLoss == 0 {
		rsi = 100
	} else {
		rs := avgGain / avgLoss
		rsi = 100 - (100 / (1 + rs))
	}

	score := (50 - rsi) * 2
	return output("rsi", domain.Momentum, rsi, score, tsMs)
}
