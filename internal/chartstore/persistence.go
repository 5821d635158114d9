package chartstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/marketcore/core/internal/cache"
)

// sparklineTTL is the retention window for the sparkline snapshot.
const sparklineTTL = 4 * time.Hour

func sparklineKey(symbol string) string {
	return fmt.Sprintf("haunt:sparkline:%s", symbol)
}

// encodeSparklinePoint renders "{ts_ms}:{price}".
func encodeSparklinePoint(tsMs int64, price float64) []byte {
	return []byte(fmt.Sprintf("%d:%s", tsMs, strconv.FormatFloat(price, 'f', -1, 64)))
}

func decodeSparklinePoint(raw []byte) (tsMs int64, price float64, ok bool) {
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	ts, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, false
	}
	p, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, false
	}
	return ts, p, true
}

// Saver periodically snapshots each known symbol's 1-minute series to the
// optional key-value backend. The store remains
// fully functional without it; every method here is best-effort.
type Saver struct {
	store *Store
	kv    cache.KV
}

// NewSaver wires a Store to a persistence backend. Pass cache.NewAuto's
// result directly; a disabled (no-op) KV makes every call here a cheap no-op.
func NewSaver(store *Store, kv cache.KV) *Saver {
	return &Saver{store: store, kv: kv}
}

// Run saves a snapshot every interval until ctx is canceled.
func (sv *Saver) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sv.SaveAll(ctx)
		}
	}
}

// SaveAll snapshots every known symbol's 1-minute close series.
func (sv *Saver) SaveAll(ctx context.Context) {
	for _, symbol := range sv.store.symbols.allSymbols() {
		sv.saveOne(ctx, symbol)
	}
}

type closePoint struct {
	tsMs  int64
	price float64
}

func (sv *Saver) saveOne(ctx context.Context, symbol string) {
	ss := sv.store.symbols.get(symbol)
	if ss == nil {
		return
	}

	ss.mu.RLock()
	src := ss.series[Res1Min].buckets
	points := make([]closePoint, len(src))
	for i, b := range src {
		points[i] = closePoint{tsMs: b.BucketStartUnixS * 1000, price: b.Close}
	}
	ss.mu.RUnlock()

	key := sparklineKey(symbol)
	for _, p := range points {
		sv.kv.ListPush(ctx, key, encodeSparklinePoint(p.tsMs, p.price), int64(Res1Min.maxBuckets()), sparklineTTL)
	}
}

// LoadAll restores the last-hour 1-minute close series for every symbol that
// has a saved snapshot. Called once at startup; a missing or corrupt entry is
// tolerated and simply skipped.
func (sv *Saver) LoadAll(ctx context.Context, symbols []string) {
	for _, symbol := range symbols {
		sv.loadOne(ctx, symbol)
	}
}

func (sv *Saver) loadOne(ctx context.Context, symbol string) {
	raw, ok := sv.kv.ListAll(ctx, sparklineKey(symbol))
	if !ok {
		return
	}

	for _, entry := range raw {
		tsMs, price, ok := decodeSparklinePoint(entry)
		if !ok {
			log.Warn().Str("symbol", symbol).Msg("dropping corrupt sparkline snapshot entry")
			continue
		}
		sv.store.AddPrice(symbol, price, nil, tsMs)
	}
}
