package signals

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketcore/core/internal/chartstore"
	"github.com/marketcore/core/internal/domain"
)

// RunValidator ticks periodically until ctx is canceled, resolving every
// outstanding prediction horizon whose look-ahead window has elapsed.
func (e *Engine) RunValidator(ctx context.Context) {
	interval := e.cfg.ValidationTick
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.validateOnce()
		}
	}
}

func (e *Engine) validateOnce() {
	now := nowFunc()
	for _, symbol := range e.predictions.allSymbols() {
		for _, pred := range e.predictions.unfinalized(symbol) {
			e.validatePrediction(symbol, pred, now)
		}
	}
}

func (e *Engine) validatePrediction(symbol string, pred *domain.SignalPrediction, now time.Time) {
	for _, h := range domain.AllHorizons {
		if pred.OutcomeFor(h) != domain.OutcomeUnset {
			continue
		}

		elapsedS := now.Unix() - pred.TsEmitMs/1000
		if elapsedS < h.Seconds() {
			continue
		}

		targetUnixS := pred.TsEmitMs/1000 + h.Seconds()
		priceAfter, ok := e.priceNear(symbol, targetUnixS)
		if !ok {
			// Look-ahead bar not yet available; if it has already aged out
			// of retention it never will be, so finalize as Neutral.
			if now.Unix()-targetUnixS > hourlyRetentionSeconds {
				pred.SetOutcome(h, domain.OutcomeNeutral, pred.PriceAtEmit)
				e.accuracy.record(pred.IndicatorID, symbol, h, domain.OutcomeNeutral)
				if e.metrics != nil {
					e.metrics.IncValidation(h.String(), domain.OutcomeNeutral.String())
				}
			}
			continue
		}

		outcome := classify(pred, priceAfter, h)
		pred.SetOutcome(h, outcome, priceAfter)
		e.accuracy.record(pred.IndicatorID, symbol, h, outcome)
		if e.metrics != nil {
			e.metrics.IncValidation(h.String(), outcome.String())
		}

		log.Debug().
			Str("symbol", symbol).
			Str("indicator", pred.IndicatorID).
			Str("horizon", h.String()).
			Str("outcome", outcome.String()).
			Msg("prediction validated")
	}
}

// priceNear returns the close of the chart bucket closest to targetUnixS.
func (e *Engine) priceNear(symbol string, targetUnixS int64) (float64, bool) {
	candles := e.store.GetChart(symbol, chartstore.Range1Month)
	if len(candles) == 0 {
		return 0, false
	}

	best := -1
	var bestDelta int64
	for i, c := range candles {
		delta := c.BucketStartUnixS - targetUnixS
		if delta < 0 {
			delta = -delta
		}
		if best == -1 || delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}
	if best == -1 {
		return 0, false
	}
	// Require the closest bucket to be within two bucket widths of the
	// target; otherwise treat it as not yet available.
	if bestDelta > hourlyBucketSeconds*2 {
		return 0, false
	}
	return candles[best].Close, true
}

const (
	hourlyBucketSeconds    = 3600
	hourlyRetentionSeconds = 30 * 24 * 3600
)

// classify implements the tri-valued outcome rule.
func classify(pred *domain.SignalPrediction, priceAfter float64, h domain.Horizon) domain.Outcome {
	if pred.PriceAtEmit == 0 {
		return domain.OutcomeNeutral
	}
	movePct := (priceAfter - pred.PriceAtEmit) / pred.PriceAtEmit * 100

	if math.Abs(movePct) < h.NeutralThresholdPct() {
		return domain.OutcomeNeutral
	}

	directionSign := 1.0
	if pred.DirectionAtEmit == domain.Bearish {
		directionSign = -1.0
	}
	moveSign := 1.0
	if movePct < 0 {
		moveSign = -1.0
	}

	if directionSign == moveSign {
		return domain.OutcomeCorrect
	}
	return domain.OutcomeIncorrect
}
