package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/marketcore/core/internal/domain"
)

// ohlcTTL matches the historical OHLC snapshot's ~90 day retention.
const ohlcTTL = 90 * 24 * time.Hour

// ohlcKey matches the sorted-set key shape for the 1-hour historical
// snapshot: haunt:ohlc:{symbol}:1h.
func ohlcKey(symbol string) string {
	return fmt.Sprintf("haunt:ohlc:%s:1h", symbol)
}

func (s *Service) saveSnapshot(ctx context.Context, symbol string, points []domain.OhlcPoint) {
	key := ohlcKey(symbol)
	for _, p := range points {
		data, err := json.Marshal(p)
		if err != nil {
			continue
		}
		s.kv.ZAdd(ctx, key, float64(p.BucketStartUnixS), data, ohlcTTL)
	}
}

func (s *Service) loadSnapshot(ctx context.Context, symbol string) ([]domain.OhlcPoint, bool) {
	raw, ok := s.kv.ZRange(ctx, ohlcKey(symbol))
	if !ok {
		return nil, false
	}

	points := make([]domain.OhlcPoint, 0, len(raw))
	for _, entry := range raw {
		var p domain.OhlcPoint
		if err := json.Unmarshal(entry, &p); err != nil {
			log.Warn().Str("symbol", symbol).Msg("dropping corrupt historical OHLC snapshot entry")
			continue
		}
		points = append(points, p)
	}
	return points, len(points) > 0
}
