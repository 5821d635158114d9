package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const appName = "marketcore"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if isTerminal(os.Stderr) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:   appName,
		Short: "Multi-source crypto market-data core",
		Long: `marketcore runs the price cache, chart store, historical backfill
service, and technical signal engine as a single process.

This binary is a thin shell around the internal/ packages -- it wires
components together and exposes serve/seed/health subcommands. The HTTP,
WebSocket, and terminal UI layers a production deployment would add around
this core are deliberately out of scope.`,
		Version: "0.1.0",
	}

	rootCmd.PersistentFlags().StringSlice("symbols", []string{"btcusd", "ethusd", "solusd"}, "comma-separated symbol universe")
	rootCmd.PersistentFlags().String("redis-addr", "", "optional redis address for chart/backfill persistence")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
