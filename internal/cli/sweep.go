package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/casehq/triage/internal/model"
	"github.com/casehq/triage/internal/store"
	"github.com/casehq/triage/internal/worker"
)

var (
	sweepForce   bool
	sweepWorkers int
	sweepStatus  string
	sweepTimeout time.Duration
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Re-classify stored tickets in parallel",
	Long: `Sweep re-runs the keyword engine over stored tickets with a worker
pool, typically after changing the rule set.

Tickets whose classification is a manual override are skipped unless
--force is set. Results are reported in listing order regardless of
worker interleaving.

Example:
  triage sweep
  triage sweep --status open --workers 8
  triage sweep --force`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().BoolVar(&sweepForce, "force", false, "re-classify even past manual overrides")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "worker count (default from config)")
	sweepCmd.Flags().StringVar(&sweepStatus, "status", "", "only sweep tickets with this status")
	sweepCmd.Flags().DurationVar(&sweepTimeout, "timeout", 10*time.Minute, "total sweep timeout")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	filter := store.ListFilter{}
	if sweepStatus != "" {
		status, err := model.ParseStatus(sweepStatus)
		if err != nil {
			return err
		}
		filter.Status = string(status)
	}

	workers := sweepWorkers
	if workers <= 0 {
		workers = cfg.Concurrency.SweepWorkers
	}

	sweeper := worker.NewSweeper(st, engine, workers, sweepForce)
	results, err := sweeper.Run(ctx, filter)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	var classified, skipped, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.TicketID, r.Err)
		case r.Skipped:
			skipped++
			if verbose {
				fmt.Printf("- %s: %s (manual override kept)\n", r.TicketID, r.Subject)
			}
		default:
			classified++
			if verbose {
				fmt.Printf("✓ %s: %s -> %s/%s\n", r.TicketID, r.Subject, r.Category, r.Priority)
			}
		}
	}

	fmt.Printf("Sweep complete: %d classified, %d skipped, %d failed (of %d)\n",
		classified, skipped, failed, len(results))
	return nil
}
