package domain

// Category is one of the four indicator groupings used to assemble a
// composite score.
type Category int

const (
	Trend Category = iota
	Momentum
	Volatility
	Volume
)

func (c Category) String() string {
	switch c {
	case Trend:
		return "trend"
	case Momentum:
		return "momentum"
	case Volatility:
		return "volatility"
	case Volume:
		return "volume"
	default:
		return "unknown"
	}
}

// Direction is the sign of a score, clamped against a configurable
// threshold rather than a bare sign check.
type Direction int

const (
	Neutral Direction = iota
	Bullish
	Bearish
)

func (d Direction) String() string {
	switch d {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// DirectionFromScore classifies composite ∈ [-100,100] against threshold.
func DirectionFromScore(composite, threshold float64) Direction {
	switch {
	case composite >= threshold:
		return Bullish
	case composite <= -threshold:
		return Bearish
	default:
		return Neutral
	}
}

// SignalOutput is one indicator's evaluation on one (symbol, timeframe) at a
// point in time.
type SignalOutput struct {
	IndicatorID string
	Category    Category
	RawValue    float64
	Score       int8 // clamped to [-100,100]
	Direction   Direction
	Accuracy    *float64
	SampleSize  *uint32
	TimestampMs int64
}

// SymbolSignals is the full indicator evaluation for one (symbol, timeframe).
type SymbolSignals struct {
	Symbol          string
	Signals         []SignalOutput
	TrendScore      float64
	MomentumScore   float64
	VolatilityScore float64
	VolumeScore     float64
	CompositeScore  int8
	Direction       Direction
	TimestampMs     int64
}

// Outcome is a tri-valued prediction-validation result.
type Outcome int

const (
	OutcomeUnset Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
	OutcomeNeutral
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeNeutral:
		return "neutral"
	default:
		return "unset"
	}
}

// Horizon is one of the four validation look-ahead windows.
type Horizon int

const (
	Horizon5m Horizon = iota
	Horizon1h
	Horizon4h
	Horizon24h
)

func (h Horizon) String() string {
	switch h {
	case Horizon5m:
		return "5m"
	case Horizon1h:
		return "1h"
	case Horizon4h:
		return "4h"
	case Horizon24h:
		return "24h"
	default:
		return "unknown"
	}
}

// Seconds returns the horizon's look-ahead window in seconds.
func (h Horizon) Seconds() int64 {
	switch h {
	case Horizon5m:
		return 5 * 60
	case Horizon1h:
		return 60 * 60
	case Horizon4h:
		return 4 * 60 * 60
	case Horizon24h:
		return 24 * 60 * 60
	default:
		return 0
	}
}

// NeutralThresholdPct is the per-horizon minimum |move_pct| below which an
// outcome is classified Neutral regardless of direction agreement.
func (h Horizon) NeutralThresholdPct() float64 {
	switch h {
	case Horizon5m:
		return 0.25
	case Horizon1h:
		return 0.5
	case Horizon4h:
		return 0.75
	case Horizon24h:
		return 1.0
	default:
		return 1.0
	}
}

// AllHorizons is every horizon validation must check, in window order.
var AllHorizons = []Horizon{Horizon5m, Horizon1h, Horizon4h, Horizon24h}

// SignalPrediction is one recorded directional call, resolved independently
// per horizon as its look-ahead window elapses.
type SignalPrediction struct {
	ID              string
	Symbol          string
	IndicatorID     string
	DirectionAtEmit Direction
	ScoreAtEmit     int8
	PriceAtEmit     float64
	TsEmitMs        int64

	Outcome5m  Outcome
	Outcome1h  Outcome
	Outcome4h  Outcome
	Outcome24h Outcome

	PriceAfter5m  *float64
	PriceAfter1h  *float64
	PriceAfter4h  *float64
	PriceAfter24h *float64
}

// OutcomeFor returns the stored outcome for horizon h; OutcomeUnset means it
// has not been finalized yet.
func (p *SignalPrediction) OutcomeFor(h Horizon) Outcome {
	switch h {
	case Horizon5m:
		return p.Outcome5m
	case Horizon1h:
		return p.Outcome1h
	case Horizon4h:
		return p.Outcome4h
	case Horizon24h:
		return p.Outcome24h
	default:
		return OutcomeUnset
	}
}

// SetOutcome records the classified outcome and resolved price for horizon h.
func (p *SignalPrediction) SetOutcome(h Horizon, outcome Outcome, priceAfter float64) {
	switch h {
	case Horizon5m:
		p.Outcome5m, p.PriceAfter5m = outcome, &priceAfter
	case Horizon1h:
		p.Outcome1h, p.PriceAfter1h = outcome, &priceAfter
	case Horizon4h:
		p.Outcome4h, p.PriceAfter4h = outcome, &priceAfter
	case Horizon24h:
		p.Outcome24h, p.PriceAfter24h = outcome, &priceAfter
	}
}

// SignalAccuracy is the rolling per-(indicator, symbol, horizon) counter set.
type SignalAccuracy struct {
	Total      uint64
	Correct    uint64
	Incorrect  uint64
	NeutralCnt uint64
}

// AccuracyPct is correct / (correct+incorrect) * 100, or 0 with no decided
// outcomes yet.
func (a SignalAccuracy) AccuracyPct() float64 {
	decided := a.Correct + a.Incorrect
	if decided == 0 {
		return 0
	}
	return float64(a.Correct) / float64(decided) * 100
}

// Timeframe is a client-selected trading horizon choosing the chart range,
// validation horizon, and category weights fed into the composite score.
type Timeframe int

const (
	Scalping Timeframe = iota
	DayTrading
	SwingTrading
	PositionTrading
)

func (t Timeframe) String() string {
	switch t {
	case Scalping:
		return "scalping"
	case DayTrading:
		return "day_trading"
	case SwingTrading:
		return "swing_trading"
	case PositionTrading:
		return "position_trading"
	default:
		return "unknown"
	}
}

// CategoryWeights is the timeframe-specific weighting of the four category
// scores used to assemble the composite.
type CategoryWeights struct {
	Trend      float64
	Momentum   float64
	Volatility float64
	Volume     float64
}

// ValidationHorizon returns the horizon used to judge predictions made under
// this timeframe.
func (t Timeframe) ValidationHorizon() Horizon {
	switch t {
	case Scalping:
		return Horizon5m
	case DayTrading:
		return Horizon4h
	case SwingTrading, PositionTrading:
		return Horizon24h
	default:
		return Horizon1h
	}
}

// CategoryWeights returns this timeframe's category weighting.
func (t Timeframe) CategoryWeights() CategoryWeights {
	switch t {
	case Scalping:
		return CategoryWeights{Trend: 0.15, Momentum: 0.45, Volatility: 0.25, Volume: 0.15}
	case DayTrading:
		return CategoryWeights{Trend: 0.30, Momentum: 0.35, Volatility: 0.20, Volume: 0.15}
	case SwingTrading:
		return CategoryWeights{Trend: 0.40, Momentum: 0.25, Volatility: 0.15, Volume: 0.20}
	case PositionTrading:
		return CategoryWeights{Trend: 0.55, Momentum: 0.15, Volatility: 0.10, Volume: 0.20}
	default:
		return CategoryWeights{Trend: 0.25, Momentum: 0.25, Volatility: 0.25, Volume: 0.25}
	}
}
