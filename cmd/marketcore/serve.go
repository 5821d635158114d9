package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// chartSaveInterval is how often the chart store's sparkline snapshot is
// persisted to the optional key-value backend.
const chartSaveInterval = 60 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the market-data core until interrupted",
	Long: `serve starts every configured source adapter, the historical
backfill service's cache warm-up, and the signal engine's background
validator, then blocks until SIGINT/SIGTERM.

The HTTP/WebSocket facades a production deployment would expose around this
process are out of scope here -- an external collaborator embeds this
package and adds those layers.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Bool("warm-cache", true, "load cached historical OHLC snapshots on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	a := buildApp(cmd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	warmCache, _ := cmd.Flags().GetBool("warm-cache")
	if warmCache {
		a.backfill.LoadFromCache(ctx, a.symbols)
		a.chartSaver.LoadAll(ctx, a.symbols)
	}

	a.startAdapters(ctx)
	go a.engine.RunValidator(ctx)
	go a.chartSaver.Run(ctx, chartSaveInterval)

	log.Info().Strs("symbols", a.symbols).Msg("marketcore serving")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutting down")
	return nil
}
