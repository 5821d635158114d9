// Package pricecache consolidates independent per-source price observations
// into one aggregated price per symbol and emits throttled, deduplicated
// updates on a single broadcast channel.
package pricecache

import (
	"math"
	"sort"
	"time"

	"github.com/marketcore/core/internal/config"
	"github.com/marketcore/core/internal/domain"
	"github.com/marketcore/core/internal/telemetry"
)

// nowFunc is overridable in tests to control emission timing deterministically.
var nowFunc = time.Now

// Cache is the multi-source price cache. It solely owns the
// per-symbol aggregation map and the broadcast sender; nothing outside this
// package mutates that state.
type Cache struct {
	cfg     config.PriceCache
	symbols *shardedMap
	bc      *broadcaster
	metrics *telemetry.Registry
}

// New constructs a Cache with the given gating configuration.
func New(cfg config.PriceCache, metrics *telemetry.Registry) *Cache {
	return &Cache{
		cfg:     cfg,
		symbols: newShardedMap(),
		bc:      newBroadcaster(),
		metrics: metrics,
	}
}

// UpdatePrice upserts a SourcePrice for (symbol, source), purges stale
// entries for that symbol, and emits an aggregated update if gating allows
// it. Fails silently on a non-positive or non-finite price -- the adapter
// is responsible for input quality.
func (c *Cache) UpdatePrice(symbol string, source domain.SourceIdentity, price float64, volume24h *float64) {
	symbol = domain.NormalizeSymbol(symbol)
	if !isValidPrice(price) {
		return
	}

	now := nowFunc()
	nowMs := now.UnixMilli()

	var toEmit *domain.AggregatedPrice

	c.symbols.withSymbol(symbol, func(st *symbolState) {
		st.sources[source] = domain.SourcePrice{
			Source:      source,
			Price:       price,
			TimestampMs: nowMs,
			Volume24h:   volume24h,
		}
		c.purgeStaleLocked(symbol, st, nowMs)

		aggregated, ok := c.aggregateLocked(st)
		if !ok {
			return
		}

		if !c.shouldEmitLocked(st, aggregated, now) {
			return
		}

		var previous *float64
		if st.lastAggregated != nil {
			v := *st.lastAggregated
			previous = &v
		}

		primary, sourceList, vol := c.summarizeLocked(st)

		st.lastAggregated = ptrFloat(aggregated)
		st.lastEmitAt = now

		toEmit = &domain.AggregatedPrice{
			Symbol:        symbol,
			Price:         aggregated,
			PreviousPrice: previous,
			Volume24h:     vol,
			PrimarySource: primary,
			Sources:       sourceList,
			TimestampMs:   nowMs,
		}
	})

	c.metrics.IncPriceUpdate(source.String(), symbol)

	if toEmit != nil {
		c.metrics.IncPriceEmit(symbol)
		c.bc.publish(*toEmit)
	}
}

func isValidPrice(price float64) bool {
	return price > 0 && !math.IsNaN(price) && !math.IsInf(price, 0)
}

// purgeStaleLocked drops any SourcePrice older than the configured stale
// threshold. Called with the symbol's shard lock held.
func (c *Cache) purgeStaleLocked(symbol string, st *symbolState, nowMs int64) {
	cutoff := nowMs - c.cfg.StaleThresholdMs
	for src, sp := range st.sources {
		if sp.TimestampMs < cutoff {
			delete(st.sources, src)
			c.metrics.IncSourceStale(src.String(), symbol)
		}
	}
}

// aggregateLocked implements the weighted-mean aggregation algorithm:
// fallback to the first entry when total weight is zero, else the
// weight-weighted mean.
func (c *Cache) aggregateLocked(st *symbolState) (float64, bool) {
	if len(st.sources) == 0 {
		return 0, false
	}

	var totalWeight float64
	var weightedSum float64
	var fallback float64
	first := true

	for _, sp := range orderedSources(st.sources) {
		if first {
			fallback = sp.Price
			first = false
		}
		w := float64(sp.Source.Weight())
		totalWeight += w
		weightedSum += sp.Price * w
	}

	if totalWeight == 0 {
		return fallback, true
	}
	return weightedSum / totalWeight, true
}

// shouldEmitLocked implements the three emission gates: at least one live
// source, throttle interval elapsed, and a meaningful price change.
func (c *Cache) shouldEmitLocked(st *symbolState, aggregated float64, now time.Time) bool {
	if len(st.sources) == 0 {
		return false
	}
	if !st.lastEmitAt.IsZero() && now.Sub(st.lastEmitAt) < time.Duration(c.cfg.ThrottleMs)*time.Millisecond {
		return false
	}
	if st.lastAggregated == nil {
		return true
	}
	prev := *st.lastAggregated
	if prev == 0 {
		return true
	}
	changePct := math.Abs(aggregated-prev) / prev * 100
	return changePct >= c.cfg.ChangeThresholdPct
}

// summarizeLocked picks the primary source (argmax weight, ties broken by
// most recent timestamp) and the sorted source list, and sums any reported
// 24h volumes.
func (c *Cache) summarizeLocked(st *symbolState) (domain.SourceIdentity, []domain.SourceIdentity, *float64) {
	var primary domain.SourceIdentity
	bestWeight := -1
	var bestTs int64
	var volSum float64
	var haveVol bool

	sources := orderedSources(st.sources)
	ids := make([]domain.SourceIdentity, 0, len(sources))
	for _, sp := range sources {
		ids = append(ids, sp.Source)
		w := sp.Source.Weight()
		if w > bestWeight || (w == bestWeight && sp.TimestampMs > bestTs) {
			bestWeight = w
			bestTs = sp.TimestampMs
			primary = sp.Source
		}
		if sp.Volume24h != nil {
			volSum += *sp.Volume24h
			haveVol = true
		}
	}

	var vol *float64
	if haveVol {
		vol = &volSum
	}
	return primary, ids, vol
}

// orderedSources returns the map's values in a deterministic order (by
// source identity) so that ties in summarizeLocked resolve consistently in
// tests, even though the spec does not require map iteration order itself.
func orderedSources(m map[domain.SourceIdentity]domain.SourcePrice) []domain.SourcePrice {
	out := make([]domain.SourcePrice, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out
}

func ptrFloat(v float64) *float64 { return &v }

// GetPrice returns the last aggregated value for symbol, or (0, false) if
// never emitted.
func (c *Cache) GetPrice(symbol string) (float64, bool) {
	st, ok := c.symbols.readSymbol(domain.NormalizeSymbol(symbol))
	if !ok || st.lastAggregated == nil {
		return 0, false
	}
	return *st.lastAggregated, true
}

// Subscribe returns an independent, lossy receiver of aggregated prices
// across all symbols. Callers must Close the receiver when
// done.
func (c *Cache) Subscribe() *Receiver {
	return c.bc.subscribe()
}
