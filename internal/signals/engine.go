// Package signals computes the fixed technical indicator catalogue over
// chart data, records directional predictions, validates them against later
// chart state, and exposes accuracy-weighted recommendations. The engine
// holds a shared handle to the Chart Store and solely owns the prediction
// and accuracy stores.
package signals

import (
	"math"
	"sync"
	"time"

	"github.com/marketcore/core/internal/chartstore"
	"github.com/marketcore/core/internal/config"
	"github.com/marketcore/core/internal/domain"
	"github.com/marketcore/core/internal/signals/indicators"
	"github.com/marketcore/core/internal/telemetry"
)

// nowFunc is overridable in tests.
var nowFunc = time.Now

type cacheEntry struct {
	signals domain.SymbolSignals
	expires time.Time
}

// Engine is the signal computation, prediction, and validation surface.
type Engine struct {
	cfg     config.Signals
	store   *chartstore.Store
	metrics *telemetry.Registry

	predictions *predictionStore
	accuracy    *accuracyStore

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

type cacheKey struct {
	symbol    string
	timeframe domain.Timeframe
}

// New constructs a signal Engine over a shared Chart Store handle.
func New(cfg config.Signals, store *chartstore.Store, metrics *telemetry.Registry) *Engine {
	return &Engine{
		cfg:         cfg,
		store:       store,
		metrics:     metrics,
		predictions: newPredictionStore(),
		accuracy:    newAccuracyStore(),
		cache:       make(map[cacheKey]cacheEntry),
	}
}

// chartRangeFor picks the chart lookback window an indicator pass reads
// for a given timeframe.
func chartRangeFor(tf domain.Timeframe) chartstore.Range {
	switch tf {
	case domain.Scalping:
		return chartstore.Range1Hour
	case domain.DayTrading:
		return chartstore.Range1Day
	case domain.SwingTrading:
		return chartstore.Range1Week
	case domain.PositionTrading:
		return chartstore.Range1Month
	default:
		return chartstore.Range1Day
	}
}

// GetSignals computes (or returns a cached) SymbolSignals for (symbol,
// timeframe). Results are cached for CacheTTL;
// concurrent computations of the same key are acceptable, the cache stores
// the last writer.
func (e *Engine) GetSignals(symbol string, tf domain.Timeframe) domain.SymbolSignals {
	symbol = domain.NormalizeSymbol(symbol)
	key := cacheKey{symbol, tf}
	now := nowFunc()

	e.mu.Lock()
	if entry, ok := e.cache[key]; ok && now.Before(entry.expires) {
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.IncSignalCacheHit(tf.String())
		}
		return entry.signals
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.IncSignalCacheMiss(tf.String())
	}

	result, price := e.compute(symbol, tf)

	e.mu.Lock()
	e.cache[key] = cacheEntry{signals: result, expires: now.Add(e.cacheTTL())}
	e.mu.Unlock()

	e.recordPredictions(symbol, result, price)
	return result
}

// InvalidateSymbol wholesale-invalidates every cached timeframe for symbol.
func (e *Engine) InvalidateSymbol(symbol string) {
	symbol = domain.NormalizeSymbol(symbol)
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.cache {
		if key.symbol == symbol {
			delete(e.cache, key)
		}
	}
}

func (e *Engine) cacheTTL() time.Duration {
	if e.cfg.CacheTTL <= 0 {
		return 30 * time.Second
	}
	return e.cfg.CacheTTL
}

func (e *Engine) compute(symbol string, tf domain.Timeframe) (domain.SymbolSignals, float64) {
	candles := e.store.GetChart(symbol, chartRangeFor(tf))
	now := nowFunc()
	nowMs := now.UnixMilli()

	var price float64
	if len(candles) > 0 {
		price = candles[len(candles)-1].Close
	}

	raw := indicators.ComputeAll(candles, nowMs)
	horizon := tf.ValidationHorizon()

	for i := range raw {
		if acc, ok := e.accuracy.get(raw[i].IndicatorID, symbol, horizon); ok && acc.Total > 0 {
			pct := acc.AccuracyPct()
			raw[i].Accuracy = &pct
			sampleSize := uint32(acc.Correct + acc.Incorrect)
			raw[i].SampleSize = &sampleSize
		}
	}

	categoryScores := categoryMeans(raw)
	weights := tf.CategoryWeights()
	composite := categoryScores[domain.Trend]*weights.Trend +
		categoryScores[domain.Momentum]*weights.Momentum +
		categoryScores[domain.Volatility]*weights.Volatility +
		categoryScores[domain.Volume]*weights.Volume

	compositeClamped := clampInt8(composite)
	direction := domain.DirectionFromScore(float64(compositeClamped), e.directionThreshold())

	return domain.SymbolSignals{
		Symbol:          symbol,
		Signals:         raw,
		TrendScore:      categoryScores[domain.Trend],
		MomentumScore:   categoryScores[domain.Momentum],
		VolatilityScore: categoryScores[domain.Volatility],
		VolumeScore:     categoryScores[domain.Volume],
		CompositeScore:  compositeClamped,
		Direction:       direction,
		TimestampMs:     nowMs,
	}, price
}

func (e *Engine) directionThreshold() float64 {
	if e.cfg.DirectionThreshold <= 0 {
		return 10
	}
	return e.cfg.DirectionThreshold
}

func (e *Engine) predictionMinScore() float64 {
	if e.cfg.PredictionMinScore <= 0 {
		return 20
	}
	return e.cfg.PredictionMinScore
}

// categoryMeans computes category_score[C] = Σ(s.score * w_s) / Σw_s, where
// w_s = max(0.5, accuracy/100) if accuracy known else 1.0.
func categoryMeans(signals []domain.SignalOutput) map[domain.Category]float64 {
	type acc struct{ num, den float64 }
	sums := map[domain.Category]*acc{
		domain.Trend:      {},
		domain.Momentum:   {},
		domain.Volatility: {},
		domain.Volume:     {},
	}

	for _, s := range signals {
		w := 1.0
		if s.Accuracy != nil {
			w = math.Max(0.5, *s.Accuracy/100)
		}
		a := sums[s.Category]
		a.num += float64(s.Score) * w
		a.den += w
	}

	out := make(map[domain.Category]float64, len(sums))
	for cat, a := range sums {
		if a.den == 0 {
			out[cat] = 0
			continue
		}
		out[cat] = a.num / a.den
	}
	return out
}

func clampInt8(v float64) int8 {
	if v > 100 {
		v = 100
	}
	if v < -100 {
		v = -100
	}
	return int8(math.Round(v))
}

// recordPredictions emits a SignalPrediction for every signal whose
// magnitude is at least PredictionMinScore.
func (e *Engine) recordPredictions(symbol string, result domain.SymbolSignals, price float64) {
	if price == 0 {
		return
	}

	for _, s := range result.Signals {
		if math.Abs(float64(s.Score)) < e.predictionMinScore() {
			continue
		}
		pred := &domain.SignalPrediction{
			Symbol:          symbol,
			IndicatorID:     s.IndicatorID,
			DirectionAtEmit: s.Direction,
			ScoreAtEmit:     s.Score,
			PriceAtEmit:     price,
			TsEmitMs:        result.TimestampMs,
		}
		e.predictions.append(symbol, pred)
		if e.metrics != nil {
			e.metrics.IncPredictionRecorded(s.IndicatorID)
		}
	}
}
