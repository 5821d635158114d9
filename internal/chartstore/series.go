package chartstore

import "github.com/marketcore/core/internal/domain"

// timeSeries is a bounded, strictly-increasing-by-bucket-start sequence of
// OHLC buckets for one (symbol, resolution) pair.
// It is not safe for concurrent use on its own -- callers hold the owning
// symbol's shard lock.
type timeSeries struct {
	res     Resolution
	buckets []domain.OHLCBucket
}

func newTimeSeries(res Resolution) *timeSeries {
	return &timeSeries{res: res, buckets: make([]domain.OHLCBucket, 0, res.maxBuckets())}
}

// add applies one price observation, updating the tail bucket if it covers
// the same window or appending (and evicting the head if full) otherwise.
func (ts *timeSeries) add(price, volume float64, unixS int64) (evicted bool) {
	bucketStart := ts.res.bucketStart(unixS)

	if n := len(ts.buckets); n > 0 && ts.buckets[n-1].BucketStartUnixS == bucketStart {
		tail := &ts.buckets[n-1]
		if price > tail.High {
			tail.High = price
		}
		if price < tail.Low {
			tail.Low = price
		}
		tail.Close = price
		tail.Volume += volume
		return false
	}

	next := domain.OHLCBucket{
		BucketStartUnixS: bucketStart,
		Open:             price,
		High:             price,
		Low:              price,
		Close:            price,
		Volume:           volume,
	}

	max := ts.res.maxBuckets()
	if len(ts.buckets) >= max {
		// FIFO eviction of the oldest bucket.
		copy(ts.buckets, ts.buckets[1:])
		ts.buckets = ts.buckets[:len(ts.buckets)-1]
		evicted = true
	}
	ts.buckets = append(ts.buckets, next)
	return evicted
}

// mergeSeed inserts an externally-sourced OHLC point, authoritative on its
// own fields, merging with any existing bucket at the same window.
func (ts *timeSeries) mergeSeed(p domain.OhlcPoint) {
	bucketStart := ts.res.bucketStart(p.BucketStartUnixS)

	for i := range ts.buckets {
		if ts.buckets[i].BucketStartUnixS == bucketStart {
			mergeBuckets(&ts.buckets[i], p)
			return
		}
	}

	ts.insertSorted(domain.OHLCBucket{
		BucketStartUnixS: bucketStart,
		Open:             p.Open,
		High:             p.High,
		Low:              p.Low,
		Close:            p.Close,
		Volume:           p.Volume,
	})
}

// mergeBuckets merges a newly-seen point into an existing bucket: open/close
// become the mean of the two contributions, high is the max, low is the min,
// volume prefers non-zero / takes the max.
func mergeBuckets(dst *domain.OHLCBucket, p domain.OhlcPoint) {
	dst.Open = (dst.Open + p.Open) / 2
	dst.Close = (dst.Close + p.Close) / 2
	if p.High > dst.High {
		dst.High = p.High
	}
	if p.Low < dst.Low {
		dst.Low = p.Low
	}
	if p.Volume > dst.Volume {
		dst.Volume = p.Volume
	}
}

// insertSorted inserts b keeping buckets strictly increasing by
// BucketStartUnixS, then trims from the head if retention is exceeded.
func (ts *timeSeries) insertSorted(b domain.OHLCBucket) {
	idx := len(ts.buckets)
	for i, existing := range ts.buckets {
		if existing.BucketStartUnixS > b.BucketStartUnixS {
			idx = i
			break
		}
	}
	ts.buckets = append(ts.buckets, domain.OHLCBucket{})
	copy(ts.buckets[idx+1:], ts.buckets[idx:])
	ts.buckets[idx] = b

	max := ts.res.maxBuckets()
	if len(ts.buckets) > max {
		ts.buckets = ts.buckets[len(ts.buckets)-max:]
	}
}

// suffixFrom returns the contiguous suffix whose BucketStartUnixS >= start.
func (ts *timeSeries) suffixFrom(start int64) []domain.OHLCBucket {
	for i, b := range ts.buckets {
		if b.BucketStartUnixS >= start {
			return ts.buckets[i:]
		}
	}
	return nil
}

// closes returns the last n close prices, oldest first.
func (ts *timeSeries) closes(n int) []float64 {
	start := 0
	if len(ts.buckets) > n {
		start = len(ts.buckets) - n
	}
	out := make([]float64, 0, len(ts.buckets)-start)
	for _, b := range ts.buckets[start:] {
		out = append(out, b.Close)
	}
	return out
}
