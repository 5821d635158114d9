// Package chartstore maintains bounded multi-resolution OHLC series per
// symbol and derives sparklines and summary statistics.
package chartstore

import (
	"time"

	"github.com/marketcore/core/internal/domain"
	"github.com/marketcore/core/internal/telemetry"
)

// nowFunc is overridable in tests.
var nowFunc = time.Now

// Store solely owns the per-symbol/per-resolution bucket rings; nothing outside this package mutates that state.
type Store struct {
	symbols *shardedMap
	metrics *telemetry.Registry
}

// New constructs an empty Store.
func New(metrics *telemetry.Registry) *Store {
	return &Store{symbols: newShardedMap(), metrics: metrics}
}

// AddPrice folds one price observation into every resolution's tail bucket,
// creating a new bucket (and evicting the head if full) when the observation
// falls outside the current tail window.
func (s *Store) AddPrice(symbol string, price float64, volume *float64, tsMs int64) {
	symbol = domain.NormalizeSymbol(symbol)
	ss := s.symbols.getOrCreate(symbol)
	unixS := tsMs / 1000
	v := 0.0
	if volume != nil {
		v = *volume
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()
	for _, r := range allResolutions {
		evicted := ss.series[r].add(price, v, unixS)
		s.metrics.IncChartBucket(r.String())
		if evicted {
			s.metrics.IncChartEviction(r.String())
		}
	}
}

// GetChart returns the contiguous suffix of the range's source resolution
// whose bucket start falls within the range's lookback window. Returns an
// empty slice (never nil-panic) for an unknown symbol.
func (s *Store) GetChart(symbol string, rg Range) []domain.OhlcPoint {
	symbol = domain.NormalizeSymbol(symbol)
	ss := s.symbols.get(symbol)
	if ss == nil {
		return nil
	}

	res := rg.sourceResolution()
	startUnixS := nowFunc().Unix() - rg.seconds()

	ss.mu.RLock()
	defer ss.mu.RUnlock()
	buckets := ss.series[res].suffixFrom(startUnixS)
	return toPoints(buckets)
}

func toPoints(buckets []domain.OHLCBucket) []domain.OhlcPoint {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]domain.OhlcPoint, len(buckets))
	for i, b := range buckets {
		out[i] = domain.OhlcPoint{
			BucketStartUnixS: b.BucketStartUnixS,
			Open:             b.Open,
			High:             b.High,
			Low:              b.Low,
			Close:            b.Close,
			Volume:           b.Volume,
		}
	}
	return out
}

// GetSparkline returns the last n close prices from the 1-minute series,
// covering roughly the last hour.
func (s *Store) GetSparkline(symbol string, n int) []float64 {
	symbol = domain.NormalizeSymbol(symbol)
	ss := s.symbols.get(symbol)
	if ss == nil {
		return nil
	}
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.series[Res1Min].closes(n)
}

// GetPriceChange returns the percentage change between the current 1-minute
// close and the close closest to now-seconds, or false if there's not
// enough history.
func (s *Store) GetPriceChange(symbol string, seconds int64) (float64, bool) {
	symbol = domain.NormalizeSymbol(symbol)
	ss := s.symbols.get(symbol)
	if ss == nil {
		return 0, false
	}

	ss.mu.RLock()
	defer ss.mu.RUnlock()
	buckets := ss.series[Res1Min].buckets
	if len(buckets) == 0 {
		return 0, false
	}

	current := buckets[len(buckets)-1].Close
	target := nowFunc().Unix() - seconds

	// Find the bucket whose start is closest to target.
	best := -1
	var bestDelta int64
	for i, b := range buckets {
		delta := b.BucketStartUnixS - target
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
	older := buckets[best].Close
	if older == 0 {
		return 0, false
	}
	return (current - older) / older * 100, true
}

// GetVolume24h sums 1-minute volumes over the last 24 hours, or false if
// nothing has been recorded.
func (s *Store) GetVolume24h(symbol string) (float64, bool) {
	symbol = domain.NormalizeSymbol(symbol)
	ss := s.symbols.get(symbol)
	if ss == nil {
		return 0, false
	}

	cutoff := nowFunc().Unix() - int64((24 * time.Hour).Seconds())

	ss.mu.RLock()
	defer ss.mu.RUnlock()
	buckets := ss.series[Res1Min].suffixFrom(cutoff)
	if len(buckets) == 0 {
		return 0, false
	}
	var total float64
	for _, b := range buckets {
		total += b.Volume
	}
	return total, true
}

// SeedSparkline distributes prices evenly across the past hour by
// synthesizing equally-spaced timestamps and feeding AddPrice for each.
// Used by the historical backfill path.
func (s *Store) SeedSparkline(symbol string, prices []float64) {
	n := len(prices)
	if n == 0 {
		return
	}
	now := nowFunc()
	hourAgo := now.Add(-time.Hour)
	step := time.Hour / time.Duration(n)

	for i, price := range prices {
		ts := hourAgo.Add(step * time.Duration(i))
		s.AddPrice(symbol, price, nil, ts.UnixMilli())
	}
}

// SeedHistorical bulk-ingests externally sourced OHLC, authoritative per
// point, assigning each to its containing bucket at every resolution and
// merging on collision.
func (s *Store) SeedHistorical(symbol string, points []domain.OhlcPoint) {
	symbol = domain.NormalizeSymbol(symbol)
	if len(points) == 0 {
		return
	}
	ss := s.symbols.getOrCreate(symbol)

	ss.mu.Lock()
	defer ss.mu.Unlock()
	for _, r := range allResolutions {
		for _, p := range points {
			ss.series[r].mergeSeed(p)
			s.metrics.IncChartBucket(r.String())
		}
	}
}
