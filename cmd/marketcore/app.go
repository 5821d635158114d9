package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketcore/core/internal/backfill"
	"github.com/marketcore/core/internal/cache"
	"github.com/marketcore/core/internal/chartstore"
	"github.com/marketcore/core/internal/config"
	"github.com/marketcore/core/internal/pricecache"
	"github.com/marketcore/core/internal/signals"
	"github.com/marketcore/core/internal/sources"
	"github.com/marketcore/core/internal/sources/coinpoll"
	"github.com/marketcore/core/internal/sources/krakenstream"
	"github.com/marketcore/core/internal/telemetry"
)

// app holds every L0/L1/L2 component wired together for one process.
type app struct {
	cfg     config.Config
	symbols []string

	prices     *pricecache.Cache
	charts     *chartstore.Store
	kv         cache.KV
	metrics    *telemetry.Registry
	backfill   *backfill.Service
	chartSaver *chartstore.Saver
	engine     *signals.Engine
	adapters   []sources.Adapter
}

// buildApp wires components from cobra persistent flags, building
// dependencies once in the command layer rather than via a DI container.
func buildApp(cmd *cobra.Command) *app {
	symbols, _ := cmd.Flags().GetStringSlice("symbols")
	redisAddr, _ := cmd.Flags().GetString("redis-addr")

	cfg := config.Default()

	reg := prometheus.NewRegistry()
	metrics := telemetry.NewRegistry(reg)

	prices := pricecache.New(cfg.PriceCache, metrics)
	charts := chartstore.New(metrics)
	kv := cache.NewAuto(redisAddr, "", 0, 0)

	vendors := []backfill.Vendor{backfill.NewCoinGeckoVendor("", "")}
	backfillSvc := backfill.New(cfg.Backfill, vendors, charts, kv, metrics)
	chartSaver := chartstore.NewSaver(charts, kv)

	engine := signals.New(cfg.Signals, charts, metrics)

	adapters := []sources.Adapter{
		krakenstream.New(krakenstream.Config{Symbols: symbols}, prices, charts, metrics),
		coinpoll.New(coinpoll.Config{Symbols: symbols}, prices, charts, metrics),
	}

	return &app{
		cfg:        cfg,
		symbols:    symbols,
		prices:     prices,
		charts:     charts,
		kv:         kv,
		metrics:    metrics,
		backfill:   backfillSvc,
		chartSaver: chartSaver,
		engine:     engine,
		adapters:   adapters,
	}
}

// startAdapters spawns every configured source adapter's background task.
func (a *app) startAdapters(ctx context.Context) {
	for _, ad := range a.adapters {
		log.Info().Str("source", ad.Identity().String()).Msg("starting adapter")
		ad.Start(ctx)
	}
}
