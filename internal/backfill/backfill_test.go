package backfill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketcore/core/internal/cache"
	"github.com/marketcore/core/internal/chartstore"
	"github.com/marketcore/core/internal/config"
	"github.com/marketcore/core/internal/domain"
)

type fakeVendor struct {
	name   string
	points []domain.OhlcPoint
	err    error
}

func (f *fakeVendor) Name() string { return f.name }
func (f *fakeVendor) FetchHistory(ctx context.Context, symbol string, since time.Time) ([]domain.OhlcPoint, error) {
	return f.points, f.err
}

func waitForTerminal(t *testing.T, s *Service, symbol string) Progress {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		p := s.StatusOf(symbol)
		if p.Status == Seeded || p.Status == Failed {
			return p
		}
		select {
		case <-deadline:
			require.FailNow(t, "timed out waiting for terminal seed status")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestTriggerSeedSucceedsWithOneVendor(t *testing.T) {
	store := chartstore.New(nil)
	vendor := &fakeVendor{name: "v1", points: []domain.OhlcPoint{
		{BucketStartUnixS: 3600, Open: 100, High: 105, Low: 95, Close: 102, Volume: 10},
		{BucketStartUnixS: 7200, Open: 102, High: 110, Low: 101, Close: 108, Volume: 12},
	}}
	cfg := config.DefaultBackfill()
	cfg.InterRequestDelay = 0
	s := New(cfg, []Vendor{vendor}, store, cache.NewAuto("", "", 0, 0), nil)

	require.True(t, s.TriggerSeed(context.Background(), "btc"), "expected seed to be accepted")
	p := waitForTerminal(t, s, "btc")
	assert.Equal(t, Seeded, p.Status)
	assert.EqualValues(t, 2, p.Points)
}

func TestTriggerSeedRefusesWhileSeedingOrSeeded(t *testing.T) {
	store := chartstore.New(nil)
	cfg := config.DefaultBackfill()
	s := New(cfg, nil, store, cache.NewAuto("", "", 0, 0), nil)

	s.mu.Lock()
	s.progress["eth"] = &Progress{Status: Seeding}
	s.mu.Unlock()

	assert.False(t, s.TriggerSeed(context.Background(), "eth"), "expected a second seed request to be refused while Seeding")
}

func TestTriggerSeedFailsWhenAllVendorsFail(t *testing.T) {
	store := chartstore.New(nil)
	cfg := config.DefaultBackfill()
	cfg.InterRequestDelay = 0
	vendor := &fakeVendor{name: "broken", err: context.DeadlineExceeded}
	s := New(cfg, []Vendor{vendor}, store, cache.NewAuto("", "", 0, 0), nil)

	s.TriggerSeed(context.Background(), "sol")
	p := waitForTerminal(t, s, "sol")
	assert.Equal(t, Failed, p.Status)
}

func TestMergeHistoryDedupsByBucketPreferringNonZeroVolume(t *testing.T) {
	a := []domain.OhlcPoint{
		{BucketStartUnixS: 3600, Open: 100, High: 100, Low: 100, Close: 100, Volume: 0},
		{BucketStartUnixS: 3600, Open: 110, High: 120, Low: 90, Close: 115, Volume: 5},
	}
	merged := mergeHistory(a)
	require.Len(t, merged, 1)

	m := merged[0]
	assert.Equal(t, 5.0, m.Volume, "expected non-zero volume to win")
	assert.Equal(t, 120.0, m.High)
	assert.Equal(t, 90.0, m.Low)
}

func TestMergeHistorySortsAscending(t *testing.T) {
	a := []domain.OhlcPoint{
		{BucketStartUnixS: 7200, Open: 1, High: 1, Low: 1, Close: 1},
		{BucketStartUnixS: 3600, Open: 1, High: 1, Low: 1, Close: 1},
	}
	merged := mergeHistory(a)
	require.Len(t, merged, 2)
	assert.Equal(t, int64(3600), merged[0].BucketStartUnixS)
	assert.Equal(t, int64(7200), merged[1].BucketStartUnixS)
}

func TestLoadFromCacheLeavesNotSeededWithoutSnapshot(t *testing.T) {
	store := chartstore.New(nil)
	kv := cache.NewAuto("", "", 0, 0) // no-op KV: nothing to load, should stay NotSeeded
	cfg := config.DefaultBackfill()
	s := New(cfg, nil, store, kv, nil)

	s.LoadFromCache(context.Background(), []string{"btc"})
	assert.Equal(t, NotSeeded, s.StatusOf("btc").Status)
}
