package indicators

import "github.com/marketcore/core/internal/domain"

const adxPeriod = 14

// ADX: trend strength scaled to the [0,50] range, signed by which
// directional indicator (+DI vs -DI) currently leads. Below ADX 20, the
// market is ranging and the score is forced to zero.
func ADX(candles []domain.OhlcPoint, tsMs int64) *domain.SignalOutput {
	if len(candles) < adxPeriod*2+1 {
		return nil
	}

	n := len(candles) - 1
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	tr := make([]float64, n)

	for i := 1; i < len(candles); i++ {
		current, previous := candles[i], candles[i-1]
		upMove := current.High - previous.High
		downMove := previous.Low - current.Low

		if upMove > downMove && upMove > 0 {
			plusDM[i-1] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i-1] = downMove
		}
		tr[i-1] = trueRange(current, previous)
	}

	smoothedPlusDM := wilderSmooth(plusDM, adxPeriod)
	smoothedMinusDM := wilderSmooth(minusDM, adxPeriod)
	smoothedTR := wilderSmooth(tr, adxPeriod)
	if len(smoothedTR) == 0 {
		return nil
	}

	dx := make([]float64, len(smoothedTR))
	for i := range smoothedTR {
		if smoothedTR[i] == 0 {
			continue
		}
		plusDI := smoothedPlusDM[i] / smoothedTR[i] * 100
		minusDI := smoothedMinusDM[i] / smoothedTR[i] * 100
		diSum := plusDI + minusDI
		if diSum > 0 {
			dx[i] = absFloat(plusDI-minusDI) / diSum * 100
		}
	}

	adxSeries := wilderSmooth(dx, adxPeriod)
	var adx float64
	if len(adxSeries) > 0 {
		adx = adxSeries[len(adxSeries)-1]
	}

	lastTR := smoothedTR[len(smoothedTR)-1]
	var plusDI, minusDI float64
	if lastTR > 0 {
		plusDI = smoothedPlusDM[len(smoothedPlusDM)-1] / lastTR * 100
		minusDI = smoothedMinusDM[len(smoothedMinusDM)-1] / lastTR * 100
	}

	var score float64
	if adx >= 20 {
		trendStrength := minFloat(adx/50, 1)
		dir := -1.0
		if plusDI > minusDI {
			dir = 1.0
		}
		score = dir * trendStrength * 100
	}

	return output("adx", domain.Trend, adx, score, tsMs)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
