package signals

import (
	"math"

	"github.com/marketcore/core/internal/domain"
)

// Action is the discrete call a recommendation resolves to.
type Action int

const (
	Hold Action = iota
	Buy
	Sell
)

func (a Action) String() string {
	switch a {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "hold"
	}
}

// Recommendation is the accuracy-weighted synthesis of one GetSignals result.
type Recommendation struct {
	Symbol                string
	Timeframe             domain.Timeframe
	Action                Action
	Confidence            float64
	WeightedScore         float64
	IndicatorsWithAccuracy int
	TotalIndicators       int
	AverageAccuracy       float64
	Description           string
}

// defaultIndicatorWeight is used for an indicator with fewer than 5 resolved
// predictions; it carries a vote but a muted one until it earns a track record.
const defaultIndicatorWeight = 0.2

// minSampleForFullWeight is the sample size beyond which the size term of the
// weighting formula saturates.
const minSampleForFullWeight = 50

// GetRecommendation synthesizes a buy/sell/hold call from the current signal
// set, weighting each indicator by its historical accuracy and sample size.
func (e *Engine) GetRecommendation(symbol string, tf domain.Timeframe) Recommendation {
	result := e.GetSignals(symbol, tf)

	var weightedSum, weightSum, accSum float64
	var withAccuracy int

	for _, s := range result.Signals {
		weight := defaultIndicatorWeight
		if s.Accuracy != nil && s.SampleSize != nil && *s.SampleSize >= 5 {
			accFrac := *s.Accuracy / 100
			sizeFactor := 0.5 + math.Min(float64(*s.SampleSize)/minSampleForFullWeight, 1.0)*0.5
			weight = accFrac * accFrac * sizeFactor
			withAccuracy++
			accSum += *s.Accuracy
		}
		weightedSum += float64(s.Score) * weight
		weightSum += weight
	}

	var weightedScore float64
	if weightSum > 0 {
		weightedScore = weightedSum / weightSum
	}

	var avgAccuracy float64
	if withAccuracy > 0 {
		avgAccuracy = accSum / float64(withAccuracy)
	}

	action := Hold
	switch {
	case weightedScore >= e.directionThreshold():
		action = Buy
	case weightedScore <= -e.directionThreshold():
		action = Sell
	}

	confidence := math.Min(math.Abs(weightedScore), 100)

	return Recommendation{
		Symbol:                 symbol,
		Timeframe:              tf,
		Action:                 action,
		Confidence:             confidence,
		WeightedScore:          weightedScore,
		IndicatorsWithAccuracy: withAccuracy,
		TotalIndicators:        len(result.Signals),
		AverageAccuracy:        avgAccuracy,
		Description:            describe(action, confidence, result.Direction),
	}
}

func describe(action Action, confidence float64, direction domain.Direction) string {
	switch action {
	case Buy:
		return "bullish confluence across indicators, composite reads " + direction.String()
	case Sell:
		return "bearish confluence across indicators, composite reads " + direction.String()
	default:
		return "no clear confluence, composite reads " + direction.String()
	}
}
