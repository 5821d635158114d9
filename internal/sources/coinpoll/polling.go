// Package coinpoll is the polling source adapter shape: it
// wakes on a fixed period, issues one batched HTTP request covering its
// symbol universe, decodes the response, and writes into the price cache and
// chart store. Modeled as a CoinGecko-shaped batch aggregator.
package coinpoll

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/marketcore/core/internal/domain"
	"github.com/marketcore/core/internal/netutil/ratelimit"
	"github.com/marketcore/core/internal/sources"
	"github.com/marketcore/core/internal/telemetry"
)

const identity = domain.SourceCoinGecko

// Config configures one Adapter instance.
type Config struct {
	BaseURL        string
	APIKey         string
	Symbols        []string
	PollPeriod     time.Duration
	RequestTimeout time.Duration
}

// Adapter is the polling source adapter. With an empty APIKey it
// still polls, sending requests without the x-cg-api-key header.
type Adapter struct {
	cfg     Config
	prices  sources.PriceWriter
	charts  sources.ChartWriter
	metrics *telemetry.Registry

	sources.HealthTracker

	httpClient *http.Client
	limiter    *ratelimit.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// New constructs a polling adapter.
func New(cfg Config, prices sources.PriceWriter, charts sources.ChartWriter, metrics *telemetry.Registry) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.PollPeriod <= 0 {
		cfg.PollPeriod = 60 * time.Second
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	breakerSettings := gobreaker.Settings{
		Name:    "coinpoll-" + identity.String(),
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	}

	return &Adapter{
		cfg:        cfg,
		prices:     prices,
		charts:     charts,
		metrics:    metrics,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		limiter:    ratelimit.New(cfg.PollPeriod, 1),
		breaker:    gobreaker.NewCircuitBreaker(breakerSettings),
	}
}

func (a *Adapter) Identity() domain.SourceIdentity { return identity }

func (a *Adapter) Health() sources.Health { return a.Snapshot() }

// Start spawns the adapter's fixed-period polling loop and returns
// immediately.
func (a *Adapter) Start(ctx context.Context) {
	go a.runLoop(ctx)
}

func (a *Adapter) runLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.PollPeriod)
	defer ticker.Stop()

	a.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.pollOnce(ctx)
		}
	}
}

// quote is one symbol's decoded response entry.
type quote struct {
	Symbol    string
	Price     float64
	Volume24h *float64
}

func (a *Adapter) pollOnce(ctx context.Context) {
	start := time.Now()

	_, err := a.breaker.Execute(func() (interface{}, error) {
		quotes, err := a.fetch(ctx)
		if err != nil {
			return nil, err
		}
		a.applyQuotes(quotes)
		return nil, nil
	})

	latency := time.Since(start)
	if err != nil {
		// On HTTP non-success (or breaker-open), log and continue on the
		// next tick.
		log.Warn().Err(err).Str("source", identity.String()).Msg("poll failed, continuing on next tick")
		a.RecordFailure()
		return
	}

	a.RecordSuccess(latency)
	if a.metrics != nil {
		a.metrics.ObserveAdapterLatencyMs(identity.String(), float64(latency.Milliseconds()))
	}
}

func (a *Adapter) fetch(ctx context.Context) ([]quote, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd&include_24hr_vol=true",
		a.cfg.BaseURL, joinSymbols(a.cfg.Symbols))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if a.cfg.APIKey != "" {
		req.Header.Set("x-cg-api-key", a.cfg.APIKey)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vendor returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return decodeQuotes(body)
}

// vendorResponse mirrors CoinGecko's { "btc": {"usd": 100.0, "usd_24h_vol":
// 123.0} } shape.
type vendorResponse map[string]map[string]float64

func decodeQuotes(body []byte) ([]quote, error) {
	var resp vendorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]quote, 0, len(resp))
	for symbol, fields := range resp {
		price, ok := fields["usd"]
		if !ok || price <= 0 {
			continue
		}
		q := quote{Symbol: domain.NormalizeSymbol(symbol), Price: price}
		if vol, ok := fields["usd_24h_vol"]; ok {
			v := vol
			q.Volume24h = &v
		}
		out = append(out, q)
	}
	return out, nil
}

func (a *Adapter) applyQuotes(quotes []quote) {
	nowMs := time.Now().UnixMilli()
	for _, q := range quotes {
		a.prices.UpdatePrice(q.Symbol, identity, q.Price, q.Volume24h)
		a.charts.AddPrice(q.Symbol, q.Price, q.Volume24h, nowMs)
	}
}

func joinSymbols(symbols []string) string {
	out := ""
	for i, s := range sources.NormalizeSymbols(symbols) {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
