package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Backfill historical OHLC data for the symbol universe and exit",
	Long: `seed triggers the historical backfill service for every symbol in
--symbols, waits for each to reach a terminal state, and prints a summary.`,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	a := buildApp(cmd)
	ctx := context.Background()

	a.backfill.SeedBatch(ctx, a.symbols)

	for _, symbol := range a.symbols {
		progress := a.backfill.StatusOf(symbol)
		log.Info().
			Str("symbol", symbol).
			Str("status", progress.Status.String()).
			Uint64("points", progress.Points).
			Msg("seed result")
		fmt.Printf("%s: %s (%d points)\n", symbol, progress.Status, progress.Points)
	}

	return nil
}
