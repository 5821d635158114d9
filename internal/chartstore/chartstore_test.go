package chartstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFixedNow(t *testing.T, at time.Time) {
	t.Helper()
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = time.Now })
}

func TestBucketMerge(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	withFixedNow(t, base.Add(time.Minute))

	s := New(nil)
	ts := base.UnixMilli()
	s.AddPrice("btc", 100, nil, ts)
	s.AddPrice("btc", 110, nil, ts+30_000)

	points := s.GetChart("btc", Range1Hour)
	require.NotEmpty(t, points, "expected at least one bucket")

	tail := points[len(points)-1]
	assert.Equal(t, 100.0, tail.Open)
	assert.Equal(t, 110.0, tail.High)
	assert.Equal(t, 100.0, tail.Low)
	assert.Equal(t, 110.0, tail.Close)
}

func TestBucketInvariants(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	withFixedNow(t, base.Add(time.Minute))

	s := New(nil)
	ts := base.UnixMilli()
	s.AddPrice("eth", 100, nil, ts)
	s.AddPrice("eth", 95, nil, ts+10_000)
	s.AddPrice("eth", 105, nil, ts+20_000)

	points := s.GetChart("eth", Range1Hour)
	for _, p := range points {
		assert.LessOrEqualf(t, p.Low, p.Open, "low invariant violated: %+v", p)
		assert.LessOrEqualf(t, p.Low, p.High, "low invariant violated: %+v", p)
		assert.LessOrEqualf(t, p.Low, p.Close, "low invariant violated: %+v", p)
		assert.GreaterOrEqualf(t, p.High, p.Open, "high invariant violated: %+v", p)
		assert.GreaterOrEqualf(t, p.High, p.Close, "high invariant violated: %+v", p)
		assert.Zerof(t, p.BucketStartUnixS%60, "bucket not aligned to resolution: %+v", p)
	}
}

func TestRingEvictsAtCapacity(t *testing.T) {
	base := time.Unix(1_700_000_000, 0)
	s := New(nil)

	for i := 0; i < 65; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		withFixedNow(t, at.Add(time.Hour))
		s.AddPrice("btc", float64(100+i), nil, at.UnixMilli())
	}

	ss := s.symbols.get("btc")
	ss.mu.RLock()
	n := len(ss.series[Res1Min].buckets)
	ss.mu.RUnlock()

	assert.Equal(t, Res1Min.maxBuckets(), n)
}

func TestSeedHistoricalRoundTrip(t *testing.T) {
	base := int64(1_700_000_000)
	withFixedNow(t, time.Unix(base+5*3600, 0))
	s := New(nil)

	points := seedPointsHourly(base, 5)
	s.SeedHistorical("btc", points)

	got := s.GetChart("btc", Range1Week)
	require.Len(t, got, len(points))
	for i, p := range got {
		assert.Equalf(t, points[i].Open, p.Open, "point %d open mismatch", i)
		assert.Equalf(t, points[i].Close, p.Close, "point %d close mismatch", i)
	}
}

func TestUnknownSymbolReadsAreEmpty(t *testing.T) {
	s := New(nil)
	assert.Nil(t, s.GetChart("nope", Range1Day))
	assert.Nil(t, s.GetSparkline("nope", 10))
	_, ok := s.GetVolume24h("nope")
	assert.False(t, ok)
}
