package signals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketcore/core/internal/chartstore"
	"github.com/marketcore/core/internal/config"
	"github.com/marketcore/core/internal/domain"
)

func withFixedNow(t *testing.T, ts time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return ts }
	t.Cleanup(func() { nowFunc = prev })
}

func seedUptrend(store *chartstore.Store, symbol string, n int, startUnixMs int64) {
	for i := 0; i < n; i++ {
		price := 100 + float64(i)*1.5
		store.AddPrice(symbol, price, nil, startUnixMs+int64(i)*3600_000)
	}
}

func newTestEngine() (*Engine, *chartstore.Store) {
	store := chartstore.New(nil)
	eng := New(config.DefaultSignals(), store, nil)
	return eng, store
}

func TestGetSignalsCachesWithinTTL(t *testing.T) {
	eng, store := newTestEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedNow(t, base)
	seedUptrend(store, "BTCUSD", 60, base.Add(-60*time.Hour).UnixMilli())

	first := eng.GetSignals("BTCUSD", domain.PositionTrading)
	second := eng.GetSignals("BTCUSD", domain.PositionTrading)

	assert.Equal(t, first.TimestampMs, second.TimestampMs, "expected the second call to hit cache and return the identical result")
}

func TestGetSignalsRecomputesAfterTTL(t *testing.T) {
	eng, store := newTestEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedNow(t, base)
	seedUptrend(store, "ETHUSD", 60, base.Add(-60*time.Hour).UnixMilli())

	first := eng.GetSignals("ETHUSD", domain.PositionTrading)
	withFixedNow(t, base.Add(time.Minute))
	second := eng.GetSignals("ETHUSD", domain.PositionTrading)

	assert.NotEqual(t, first.TimestampMs, second.TimestampMs, "expected a fresh computation once the cache TTL has elapsed")
}

func TestGetSignalsEmptyChartYieldsNeutral(t *testing.T) {
	eng, _ := newTestEngine()
	result := eng.GetSignals("NODATA", domain.DayTrading)
	assert.Equal(t, domain.Neutral, result.Direction)
	assert.Empty(t, result.Signals, "expected no indicator output with no candles")
}

func TestGetSignalsUptrendIsBullishComposite(t *testing.T) {
	eng, store := newTestEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedNow(t, base)
	seedUptrend(store, "SOLUSD", 60, base.Add(-60*time.Hour).UnixMilli())

	result := eng.GetSignals("SOLUSD", domain.PositionTrading)
	assert.Greaterf(t, result.CompositeScore, int8(0), "expected a positive composite score in a sustained uptrend, got %+v", result)
}

func TestInvalidateSymbolForcesRecompute(t *testing.T) {
	eng, store := newTestEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedNow(t, base)
	seedUptrend(store, "ADAUSD", 60, base.Add(-60*time.Hour).UnixMilli())

	first := eng.GetSignals("ADAUSD", domain.DayTrading)
	eng.InvalidateSymbol("ADAUSD")
	second := eng.GetSignals("ADAUSD", domain.DayTrading)

	assert.Equal(t, first.TimestampMs, second.TimestampMs, "invalidation should not change the fixed clock's timestamp, only force a recompute")
	assert.NotEmpty(t, eng.cache, "expected the recompute to repopulate the cache")
}

func TestRecordPredictionsOnlyAboveMinScore(t *testing.T) {
	eng, store := newTestEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedNow(t, base)
	seedUptrend(store, "DOGEUSD", 60, base.Add(-60*time.Hour).UnixMilli())

	eng.GetSignals("DOGEUSD", domain.PositionTrading)

	preds := eng.predictions.unfinalized("DOGEUSD")
	for _, p := range preds {
		assert.GreaterOrEqualf(t, absInt8(p.ScoreAtEmit), int8(eng.predictionMinScore()), "recorded a prediction below the minimum score: %+v", p)
	}
}

func absInt8(v int8) int8 {
	if v < 0 {
		return -v
	}
	return v
}

func TestValidatePredictionClassifiesCorrectOnAgreement(t *testing.T) {
	eng, store := newTestEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedNow(t, base)

	pred := &domain.SignalPrediction{
		Symbol:          "BTCUSD",
		IndicatorID:     "rsi",
		DirectionAtEmit: domain.Bullish,
		ScoreAtEmit:     40,
		PriceAtEmit:     100,
		TsEmitMs:        base.UnixMilli(),
	}
	eng.predictions.append("BTCUSD", pred)

	store.AddPrice("BTCUSD", 110, nil, base.Add(5*time.Minute).UnixMilli())

	withFixedNow(t, base.Add(10*time.Minute))
	eng.validateOnce()

	assert.Equal(t, domain.OutcomeCorrect, pred.Outcome5m)
	acc, ok := eng.accuracy.get("rsi", "BTCUSD", domain.Horizon5m)
	require.True(t, ok)
	assert.EqualValues(t, 1, acc.Correct, "expected the accuracy store to record one correct outcome")
}

func TestValidatePredictionClassifiesNeutralBelowThreshold(t *testing.T) {
	eng, store := newTestEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedNow(t, base)

	pred := &domain.SignalPrediction{
		Symbol:          "BTCUSD",
		IndicatorID:     "rsi",
		DirectionAtEmit: domain.Bullish,
		ScoreAtEmit:     40,
		PriceAtEmit:     100,
		TsEmitMs:        base.UnixMilli(),
	}
	eng.predictions.append("BTCUSD", pred)

	store.AddPrice("BTCUSD", 100.05, nil, base.Add(5*time.Minute).UnixMilli())

	withFixedNow(t, base.Add(10*time.Minute))
	eng.validateOnce()

	assert.Equal(t, domain.OutcomeNeutral, pred.Outcome5m, "expected a sub-threshold move to classify as neutral")
}

func TestRunValidatorStopsOnContextCancel(t *testing.T) {
	eng, _ := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		eng.RunValidator(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		require.FailNow(t, "expected RunValidator to return promptly after context cancellation")
	}
}

func TestGetRecommendationHoldsWithoutConfluence(t *testing.T) {
	eng, _ := newTestEngine()
	rec := eng.GetRecommendation("FLAT", domain.DayTrading)
	assert.Equal(t, Hold, rec.Action)
}

func TestGetRecommendationBuysOnSustainedUptrend(t *testing.T) {
	eng, store := newTestEngine()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	withFixedNow(t, base)
	seedUptrend(store, "XRPUSD", 60, base.Add(-60*time.Hour).UnixMilli())

	rec := eng.GetRecommendation("XRPUSD", domain.PositionTrading)
	assert.Equal(t, Buy, rec.Action)
	assert.Greater(t, rec.Confidence, 0.0)
}
