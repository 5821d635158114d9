package backfill

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marketcore/core/internal/domain"
)

// CoinGeckoVendor fetches daily-granularity market-chart history, the
// typical shape of a free-tier crypto history API.
type CoinGeckoVendor struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

func NewCoinGeckoVendor(baseURL, apiKey string) *CoinGeckoVendor {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGeckoVendor{BaseURL: baseURL, APIKey: apiKey, Client: &http.Client{Timeout: 30 * time.Second}}
}

func (v *CoinGeckoVendor) Name() string { return "coingecko_history" }

type marketChartResponse struct {
	Prices [][2]float64 `json:"prices"`
}

func (v *CoinGeckoVendor) FetchHistory(ctx context.Context, symbol string, since time.Time) ([]domain.OhlcPoint, error) {
	days := int(time.Since(since).Hours()/24) + 1
	url := fmt.Sprintf("%s/coins/%s/market_chart?vs_currency=usd&days=%d", v.BaseURL, symbol, days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if v.APIKey != "" {
		req.Header.Set("x-cg-api-key", v.APIKey)
	}

	resp, err := v.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed marketChartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode market chart: %w", err)
	}

	return pricesToHourlyPoints(parsed.Prices), nil
}

// pricesToHourlyPoints buckets a [timestamp_ms, price] series into 1-hour
// OHLC points: first price in the hour is open, last is close, min/max
// across the hour give low/high.
func pricesToHourlyPoints(prices [][2]float64) []domain.OhlcPoint {
	const resolutionS = 3600

	byBucket := make(map[int64]*domain.OhlcPoint)
	var order []int64

	for _, pp := range prices {
		tsMs, price := int64(pp[0]), pp[1]
		if price <= 0 {
			continue
		}
		bucketStart := (tsMs / 1000 / resolutionS) * resolutionS

		p, ok := byBucket[bucketStart]
		if !ok {
			p = &domain.OhlcPoint{BucketStartUnixS: bucketStart, Open: price, High: price, Low: price, Close: price}
			byBucket[bucketStart] = p
			order = append(order, bucketStart)
			continue
		}
		if price > p.High {
			p.High = price
		}
		if price < p.Low {
			p.Low = price
		}
		p.Close = price
	}

	out := make([]domain.OhlcPoint, len(order))
	for i, bucketStart := range order {
		out[i] = *byBucket[bucketStart]
	}
	return out
}
