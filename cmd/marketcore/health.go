package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Start adapters briefly and report their health snapshots",
	Long: `health starts every configured source adapter, waits a short grace
period for a first successful observation, then prints each adapter's
Health snapshot and exits. Useful for verifying credentials and
connectivity without running the full serve loop.`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().Duration("grace", 5*time.Second, "how long to wait before sampling health")
}

func runHealth(cmd *cobra.Command, args []string) error {
	a := buildApp(cmd)
	grace, _ := cmd.Flags().GetDuration("grace")

	ctx, cancel := context.WithTimeout(context.Background(), grace+time.Second)
	defer cancel()

	a.startAdapters(ctx)

	select {
	case <-time.After(grace):
	case <-ctx.Done():
	}

	for _, ad := range a.adapters {
		h := ad.Health()
		fmt.Printf("%-12s connected=%-5t consecutive_errors=%-3d last_latency=%s last_success=%s\n",
			ad.Identity().String(), h.Connected, h.ConsecutiveErrors, h.LastLatency, formatLastSuccess(h.LastSuccess))
	}

	return nil
}

func formatLastSuccess(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.Kitchen)
}
