// Package config declares the pre-validated configuration surface the core
// accepts. Loading it from the environment or a file is out of scope here --
// an external collaborator unmarshals into Config and hands it to the core
// components.
package config

import "time"

// PriceCache configures the multi-source aggregation gating.
type PriceCache struct {
	ChangeThresholdPct float64 `yaml:"change_threshold_pct"`
	ThrottleMs         int64   `yaml:"throttle_ms"`
	StaleThresholdMs   int64   `yaml:"stale_threshold_ms"`
}

// DefaultPriceCache returns the recommended production gating defaults.
func DefaultPriceCache() PriceCache {
	return PriceCache{
		ChangeThresholdPct: 0.01,
		ThrottleMs:         100,
		StaleThresholdMs:   120_000,
	}
}

// Vendor holds an opaque API key for one historical/polling vendor. An empty
// Key disables the vendor.
type Vendor struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
}

// Redis configures the optional key-value persistence backend.
// Addr empty means persistence is disabled; the core must remain fully
// functional without it.
type Redis struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// Backfill configures the historical seeding service.
type Backfill struct {
	Vendors           []Vendor      `yaml:"vendors"`
	InterRequestDelay time.Duration `yaml:"inter_request_delay"`
	BatchPause        time.Duration `yaml:"batch_pause"`
	BatchSize         int           `yaml:"batch_size"`
	HistoryDays       int           `yaml:"history_days"`
}

// DefaultBackfill returns conservative vendor rate-limiting defaults.
func DefaultBackfill() Backfill {
	return Backfill{
		InterRequestDelay: 250 * time.Millisecond,
		BatchPause:        15 * time.Second,
		BatchSize:         5,
		HistoryDays:       90,
	}
}

// Signals configures the indicator/prediction/accuracy engine.
type Signals struct {
	CacheTTL           time.Duration `yaml:"cache_ttl"`
	ValidationTick     time.Duration `yaml:"validation_tick"`
	DirectionThreshold float64       `yaml:"direction_threshold"`
	PredictionMinScore float64       `yaml:"prediction_min_score"`
}

// DefaultSignals returns a 30s signal cache with a ~1 minute validator tick.
func DefaultSignals() Signals {
	return Signals{
		CacheTTL:           30 * time.Second,
		ValidationTick:     time.Minute,
		DirectionThreshold: 10,
		PredictionMinScore: 20,
	}
}

// Config is the full pre-validated configuration surface.
type Config struct {
	PriceCache PriceCache `yaml:"price_cache"`
	Redis      Redis      `yaml:"redis"`
	Backfill   Backfill   `yaml:"backfill"`
	Signals    Signals    `yaml:"signals"`
}

// Default returns a configuration usable in development.
func Default() Config {
	return Config{
		PriceCache: DefaultPriceCache(),
		Backfill:   DefaultBackfill(),
		Signals:    DefaultSignals(),
	}
}
