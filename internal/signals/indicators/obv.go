package indicators

import "github.com/marketcore/core/internal/domain"

const obvLookback = 14

// OBV: cumulative volume trend compared against the concurrent price trend.
// Agreement (both rising or both falling) confirms the move; disagreement
// (divergence) is scored as the stronger, contrarian signal.
func OBV(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput {
	if len(candles) < obvLookback+1 {
		return nil
	}

	obvValues := make([]float64, len(candles))
	var obv float64
	for i := 1; i < len(candles); i++ {
		vol := candles[i].Volume
		if vol == 0 {
			vol = 1
		}
		switch {
		case candles[i].Close > candles[i-1].Close:
			obv += vol
		case candles[i].Close < candles[i-1].Close:
			obv -= vol
		}
		obvValues[i] = obv
	}

	recentOBV := obvValues[len(obvValues)-obvLookback:]
	obvChange := recentOBV[len(recentOBV)-1] - recentOBV[0]

	recentCloses := closes(candles)[len(candles)-obvLookback:]
	priceChange := recentCloses[len(recentCloses)-1] - recentCloses[0]

	var volSum float64
	for _, c := range candles[len(candles)-obvLookback:] {
		volSum += c.Volume
	}
	avgVolume := volSum / obvLookback

	var normalized float64
	if avgVolume > 0 {
		normalized = obvChange / (avgVolume * obvLookback)
	}

	var score float64
	switch {
	case obvChange > 0 && priceChange > 0:
		score = clampRange(normalized*100, 20, 80)
	case obvChange > 0 && priceChange <= 0:
		score = clampRange(normalized*150, 50, 100)
	case obvChange < 0 && priceChange < 0:
		score = clampRange(normalized*100, -80, -20)
	case obvChange < 0 && priceChange >= 0:
		score = clampRange(normalized*150, -100, -50)
	}

	return output("obv", domain.Volume, obv, score, tsMs)
}
