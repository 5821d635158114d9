// Package backfill implements one-shot historical seeding of the chart
// store: when a chart query exposes missing history for a symbol, it
// asynchronously retrieves OHLC from external vendor APIs and seeds the
// store, tracking per-symbol progress through a small state machine.
// Vendors are called one after another with a fixed delay between requests;
// vendor calls go through no rate limiter or circuit breaker.
package backfill

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketcore/core/internal/cache"
	"github.com/marketcore/core/internal/chartstore"
	"github.com/marketcore/core/internal/config"
	"github.com/marketcore/core/internal/domain"
	"github.com/marketcore/core/internal/telemetry"
)

// Status is a symbol's position in the seeding state machine.
type Status int

const (
	NotSeeded Status = iota
	Seeding
	Seeded
	Failed
)

func (s Status) String() string {
	switch s {
	case NotSeeded:
		return "not_seeded"
	case Seeding:
		return "seeding"
	case Seeded:
		return "seeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Progress is the per-symbol seed progress record. Created when seeding
// starts; Seeded and Failed are terminal until an operator retry.
type Progress struct {
	Status      Status
	ProgressPct int
	Points      uint64
	Message     string
}

// waypoints are the coarse progress_pct checkpoints reported while seeding.
var waypoints = []int{10, 60, 75, 85, 100}

// Vendor fetches historical OHLC for one symbol from one external history
// API. Implementations wrap a concrete HTTP vendor client (CoinGecko,
// CryptoCompare, an equities history API, ...).
type Vendor interface {
	Name() string
	FetchHistory(ctx context.Context, symbol string, since time.Time) ([]domain.OhlcPoint, error)
}

// Service runs the historical backfill state machine for a set of symbols.
// It holds a shared handle to the Chart Store and solely owns the seed
// progress map.
type Service struct {
	cfg     config.Backfill
	vendors []Vendor
	store   *chartstore.Store
	kv      cache.KV
	metrics *telemetry.Registry

	mu       sync.Mutex
	progress map[string]*Progress
}

// New constructs a backfill Service. vendors are tried in order for every
// symbol; an empty list means every seed attempt terminates Failed.
func New(cfg config.Backfill, vendors []Vendor, store *chartstore.Store, kv cache.KV, metrics *telemetry.Registry) *Service {
	return &Service{
		cfg:      cfg,
		vendors:  vendors,
		store:    store,
		kv:       kv,
		metrics:  metrics,
		progress: make(map[string]*Progress),
	}
}

// StatusOf returns the current progress for a symbol, or NotSeeded if the
// symbol has never been seen.
func (s *Service) StatusOf(symbol string) Progress {
	symbol = domain.NormalizeSymbol(symbol)
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.progress[symbol]; ok {
		return *p
	}
	return Progress{Status: NotSeeded}
}

// LoadFromCache restores seeded state at startup without contacting any
// vendor: for each known symbol, attempt a load from the key-value backend;
// if non-empty, mark it Seeded.
func (s *Service) LoadFromCache(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		symbol = domain.NormalizeSymbol(symbol)
		points, ok := s.loadSnapshot(ctx, symbol)
		if !ok || len(points) == 0 {
			continue
		}
		s.store.SeedHistorical(symbol, points)
		s.mu.Lock()
		s.progress[symbol] = &Progress{Status: Seeded, ProgressPct: 100, Points: uint64(len(points)), Message: "Complete"}
		s.mu.Unlock()
	}
}

// TriggerSeed starts a background seed for symbol if it is NotSeeded or
// Failed. A symbol already Seeding or Seeded is refused (second request is
// a no-op); concurrent requests for the same symbol coalesce.
func (s *Service) TriggerSeed(ctx context.Context, symbol string) bool {
	symbol = domain.NormalizeSymbol(symbol)

	s.mu.Lock()
	p, exists := s.progress[symbol]
	if exists && (p.Status == Seeding || p.Status == Seeded) {
		s.mu.Unlock()
		return false
	}
	s.progress[symbol] = &Progress{Status: Seeding, ProgressPct: 0}
	s.mu.Unlock()

	go s.seedOne(ctx, symbol)
	return true
}

// SeedBatch triggers sequential seeding for many symbols, sleeping
// InterRequestDelay between vendor calls and pausing BatchPause every
// BatchSize symbols.
func (s *Service) SeedBatch(ctx context.Context, symbols []string) {
	for i, symbol := range symbols {
		s.seedOne(ctx, domain.NormalizeSymbol(symbol))

		if i > 0 && (i+1)%s.batchSize() == 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.batchPause()):
			}
		}
	}
}

func (s *Service) batchSize() int {
	if s.cfg.BatchSize <= 0 {
		return 5
	}
	return s.cfg.BatchSize
}

func (s *Service) batchPause() time.Duration {
	if s.cfg.BatchPause <= 0 {
		return 15 * time.Second
	}
	return s.cfg.BatchPause
}

func (s *Service) interRequestDelay() time.Duration {
	if s.cfg.InterRequestDelay <= 0 {
		return 250 * time.Millisecond
	}
	return s.cfg.InterRequestDelay
}

func (s *Service) setProgress(symbol string, pct int, points uint64, status Status, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[symbol] = &Progress{Status: status, ProgressPct: pct, Points: uint64(points), Message: message}
}

func (s *Service) seedOne(ctx context.Context, symbol string) {
	s.setProgress(symbol, waypoints[0], 0, Seeding, "")

	since := time.Now().AddDate(0, 0, -s.historyDays())
	var all []domain.OhlcPoint
	var succeeded int

	for i, v := range s.vendors {
		if i > 0 {
			select {
			case <-ctx.Done():
				s.fail(symbol, ctx.Err().Error())
				return
			case <-time.After(s.interRequestDelay()):
			}
		}

		points, err := v.FetchHistory(ctx, symbol, since)
		if err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Str("vendor", v.Name()).Msg("backfill vendor failed, trying next")
			if s.metrics != nil {
				s.metrics.IncBackfillAttempt(symbol, "vendor_error")
			}
			continue
		}

		succeeded++
		all = append(all, points...)
		s.setProgress(symbol, waypointAt(1+i, len(s.vendors)), uint64(len(all)), Seeding, "")
	}

	if succeeded == 0 || len(all) == 0 {
		s.fail(symbol, "all vendors failed or returned no data")
		return
	}

	merged := mergeHistory(all)
	s.setProgress(symbol, 85, uint64(len(merged)), Seeding, "")

	s.store.SeedHistorical(symbol, merged)
	s.saveSnapshot(ctx, symbol, merged)

	s.setProgress(symbol, 100, uint64(len(merged)), Seeded, "Complete")
	if s.metrics != nil {
		s.metrics.IncBackfillAttempt(symbol, "seeded")
		s.metrics.AddBackfillPoints(symbol, len(merged))
	}
}

func (s *Service) fail(symbol, message string) {
	s.setProgress(symbol, 100, 0, Failed, message)
	if s.metrics != nil {
		s.metrics.IncBackfillAttempt(symbol, "failed")
	}
}

func (s *Service) historyDays() int {
	if s.cfg.HistoryDays <= 0 {
		return 90
	}
	return s.cfg.HistoryDays
}

func waypointAt(i, total int) int {
	if total <= 0 {
		return waypoints[0]
	}
	idx := i * (len(waypoints) - 2) / total
	if idx >= len(waypoints)-1 {
		idx = len(waypoints) - 2
	}
	return waypoints[idx]
}

// mergeHistory deduplicates points by exact bucket_start (preferring a
// non-zero-volume entry within a duplicate, merging OHLC as the chart
// store's SeedHistorical collision merge does: mean open/close, max high,
// min low), then sorts ascending by timestamp.
func mergeHistory(points []domain.OhlcPoint) []domain.OhlcPoint {
	byBucket := make(map[int64]domain.OhlcPoint, len(points))
	for _, p := range points {
		existing, ok := byBucket[p.BucketStartUnixS]
		if !ok {
			byBucket[p.BucketStartUnixS] = p
			continue
		}
		byBucket[p.BucketStartUnixS] = mergeOhlc(existing, p)
	}

	out := make([]domain.OhlcPoint, 0, len(byBucket))
	for _, p := range byBucket {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BucketStartUnixS < out[j].BucketStartUnixS })
	return out
}

func mergeOhlc(a, b domain.OhlcPoint) domain.OhlcPoint {
	volume := a.Volume
	if volume == 0 {
		volume = b.Volume
	} else if b.Volume != 0 {
		volume = maxFloat(volume, b.Volume)
	}
	return domain.OhlcPoint{
		BucketStartUnixS: a.BucketStartUnixS,
		Open:             mean(a.Open, b.Open),
		High:             maxFloat(a.High, b.High),
		Low:              minFloat(a.Low, b.Low),
		Close:            mean(a.Close, b.Close),
		Volume:           volume,
	}
}

func mean(a, b float64) float64 { return (a + b) / 2 }

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
