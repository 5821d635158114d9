package chartstore

import "github.com/marketcore/core/internal/domain"

// seedPointsHourly builds n ascending hourly OHLC points starting at base
// (unix seconds), used by seed/merge round-trip tests.
func seedPointsHourly(base int64, n int) []domain.OhlcPoint {
	out := make([]domain.OhlcPoint, n)
	for i := 0; i < n; i++ {
		price := float64(100 + i)
		out[i] = domain.OhlcPoint{
			BucketStartUnixS: base + int64(i)*3600,
			Open:             price,
			High:             price + 1,
			Low:              price - 1,
			Close:            price + 0.5,
			Volume:           10,
		}
	}
	return out
}
