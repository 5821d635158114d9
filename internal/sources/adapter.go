// Package sources defines the common adapter contract every market-data
// provider integration implements. Concrete adapters live in
// sibling packages (krakenstream for the streaming shape, coinpoll for the
// polling shape); this package only holds the shared interfaces, the write
// surface adapters are given, and health tracking.
package sources

import (
	"context"
	"sync"
	"time"

	"github.com/marketcore/core/internal/domain"
)

// PriceWriter is the subset of pricecache.Cache adapters are allowed to
// call. Adapters hold a shared, read-only handle to the cache otherwise --
// they never Subscribe.
type PriceWriter interface {
	UpdatePrice(symbol string, source domain.SourceIdentity, price float64, volume24h *float64)
}

// ChartWriter is the subset of chartstore.Store adapters are allowed to call.
type ChartWriter interface {
	AddPrice(symbol string, price float64, volume *float64, tsMs int64)
}

// Adapter is the contract every source integration satisfies: construct with
// its dependencies, then Start spawns its background task(s) and returns
// immediately.
type Adapter interface {
	Identity() domain.SourceIdentity
	Start(ctx context.Context)
	Health() Health
}

// Health is the adapter health snapshot: last success, consecutive failures,
// and last observed request/message latency, read-only from the outside.
type Health struct {
	LastSuccess       time.Time
	ConsecutiveErrors int
	LastLatency       time.Duration
	Connected         bool
}

// HealthTracker is embedded by concrete adapters to manage Health under a
// single mutex, keeping adapter-local state out of the shared price-cache
// and chart-store components entirely.
type HealthTracker struct {
	mu   sync.RWMutex
	h    Health
}

func (t *HealthTracker) RecordSuccess(latency time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.h.LastSuccess = time.Now()
	t.h.ConsecutiveErrors = 0
	t.h.LastLatency = latency
}

func (t *HealthTracker) RecordFailure() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.h.ConsecutiveErrors++
}

func (t *HealthTracker) SetConnected(connected bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.h.Connected = connected
}

func (t *HealthTracker) Snapshot() Health {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.h
}

// NormalizeSymbols lowercases every symbol in universe; adapters must
// normalize symbols before writing them through to shared state.
func NormalizeSymbols(universe []string) []string {
	out := make([]string, len(universe))
	for i, s := range universe {
		out[i] = domain.NormalizeSymbol(s)
	}
	return out
}
