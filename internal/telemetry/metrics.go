// Package telemetry holds the Prometheus metrics surface for the core. A nil
// *Registry must never panic a caller -- every component accepts a possibly
// nil registry and no-ops.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Registry holds all Prometheus metrics for the market-data core.
type Registry struct {
	PriceUpdatesTotal   *prometheus.CounterVec
	PriceEmitsTotal     *prometheus.CounterVec
	SourceStaleTotal    *prometheus.CounterVec

	ChartBucketsTotal   *prometheus.CounterVec
	ChartEvictionsTotal *prometheus.CounterVec

	AdapterReconnects   *prometheus.CounterVec
	AdapterLatencyMs    *prometheus.HistogramVec
	AdapterDecodeErrors *prometheus.CounterVec

	BackfillAttempts    *prometheus.CounterVec
	BackfillPoints      *prometheus.CounterVec

	SignalCacheHits     *prometheus.CounterVec
	SignalCacheMisses   *prometheus.CounterVec
	PredictionsRecorded *prometheus.CounterVec
	ValidationsTotal    *prometheus.CounterVec
}

// NewRegistry builds metrics and registers them against reg. Pass
// prometheus.NewRegistry() in production, or nil to disable metrics entirely
// (NewRegistry returns nil, nil in that case).
func NewRegistry(reg prometheus.Registerer) *Registry {
	if reg == nil {
		return nil
	}

	m := &Registry{
		PriceUpdatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_price_updates_total",
			Help: "Total update_price calls received, by source and symbol.",
		}, []string{"source", "symbol"}),

		PriceEmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_price_emits_total",
			Help: "Total aggregated price emissions on the broadcast channel.",
		}, []string{"symbol"}),

		SourceStaleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_source_stale_purged_total",
			Help: "Total stale SourcePrice entries purged.",
		}, []string{"source", "symbol"}),

		ChartBucketsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_chart_buckets_total",
			Help: "Total OHLC buckets created, by resolution.",
		}, []string{"resolution"}),

		ChartEvictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_chart_evictions_total",
			Help: "Total OHLC buckets evicted FIFO, by resolution.",
		}, []string{"resolution"}),

		AdapterReconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_adapter_reconnects_total",
			Help: "Total streaming adapter reconnect attempts, by source.",
		}, []string{"source"}),

		AdapterLatencyMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "marketcore_adapter_request_latency_ms",
			Help:    "Polling adapter request latency in milliseconds.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"source"}),

		AdapterDecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_adapter_decode_errors_total",
			Help: "Total malformed vendor payloads dropped, by source.",
		}, []string{"source"}),

		BackfillAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_backfill_attempts_total",
			Help: "Total seed attempts, by symbol and terminal status.",
		}, []string{"symbol", "status"}),

		BackfillPoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_backfill_points_total",
			Help: "Total OHLC points inserted by historical backfill, by symbol.",
		}, []string{"symbol"}),

		SignalCacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_signal_cache_hits_total",
			Help: "Total signal cache hits, by timeframe.",
		}, []string{"timeframe"}),

		SignalCacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_signal_cache_misses_total",
			Help: "Total signal cache misses, by timeframe.",
		}, []string{"timeframe"}),

		PredictionsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_predictions_recorded_total",
			Help: "Total signal predictions recorded, by indicator.",
		}, []string{"indicator"}),

		ValidationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketcore_validations_total",
			Help: "Total predictions finalized, by horizon and outcome.",
		}, []string{"horizon", "outcome"}),
	}

	for _, c := range []prometheus.Collector{
		m.PriceUpdatesTotal, m.PriceEmitsTotal, m.SourceStaleTotal,
		m.ChartBucketsTotal, m.ChartEvictionsTotal,
		m.AdapterReconnects, m.AdapterLatencyMs, m.AdapterDecodeErrors,
		m.BackfillAttempts, m.BackfillPoints,
		m.SignalCacheHits, m.SignalCacheMisses, m.PredictionsRecorded, m.ValidationsTotal,
	} {
		reg.MustRegister(c)
	}

	return m
}

// incCounter is a nil-safe helper so call sites don't need "if m != nil" guards.
func (m *Registry) incCounter(v *prometheus.CounterVec, labels ...string) {
	if m == nil || v == nil {
		return
	}
	v.WithLabelValues(labels...).Inc()
}

func (m *Registry) observe(v *prometheus.HistogramVec, value float64, labels ...string) {
	if m == nil || v == nil {
		return
	}
	v.WithLabelValues(labels...).Observe(value)
}

func (m *Registry) IncPriceUpdate(source, symbol string) {
	if m == nil {
		return
	}
	m.incCounter(m.PriceUpdatesTotal, source, symbol)
}

func (m *Registry) IncPriceEmit(symbol string) {
	if m == nil {
		return
	}
	m.incCounter(m.PriceEmitsTotal, symbol)
}

func (m *Registry) IncSourceStale(source, symbol string) {
	if m == nil {
		return
	}
	m.incCounter(m.SourceStaleTotal, source, symbol)
}

func (m *Registry) IncChartBucket(resolution string) {
	if m == nil {
		return
	}
	m.incCounter(m.ChartBucketsTotal, resolution)
}

func (m *Registry) IncChartEviction(resolution string) {
	if m == nil {
		return
	}
	m.incCounter(m.ChartEvictionsTotal, resolution)
}

func (m *Registry) IncAdapterReconnect(source string) {
	if m == nil {
		return
	}
	m.incCounter(m.AdapterReconnects, source)
}

func (m *Registry) ObserveAdapterLatencyMs(source string, ms float64) {
	if m == nil {
		return
	}
	m.observe(m.AdapterLatencyMs, ms, source)
}

func (m *Registry) IncAdapterDecodeError(source string) {
	if m == nil {
		return
	}
	m.incCounter(m.AdapterDecodeErrors, source)
}

func (m *Registry) IncBackfillAttempt(symbol, status string) {
	if m == nil {
		return
	}
	m.incCounter(m.BackfillAttempts, symbol, status)
}

func (m *Registry) AddBackfillPoints(symbol string, n int) {
	if m == nil || m.BackfillPoints == nil || n <= 0 {
		return
	}
	m.BackfillPoints.WithLabelValues(symbol).Add(float64(n))
}

func (m *Registry) IncSignalCacheHit(timeframe string) {
	if m == nil {
		return
	}
	m.incCounter(m.SignalCacheHits, timeframe)
}

func (m *Registry) IncSignalCacheMiss(timeframe string) {
	if m == nil {
		return
	}
	m.incCounter(m.SignalCacheMisses, timeframe)
}

func (m *Registry) IncPredictionRecorded(indicator string) {
	if m == nil {
		return
	}
	m.incCounter(m.PredictionsRecorded, indicator)
}

func (m *Registry) IncValidation(horizon, outcome string) {
	if m == nil {
		return
	}
	m.incCounter(m.ValidationsTotal, horizon, outcome)
}
