package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/casehq/triage/internal/model"
	"github.com/casehq/triage/internal/sched"
)

var (
	watchSchedule string
	watchURL      string
	watchFormat   string
	watchAuto     bool
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Import a remote feed on a cron schedule",
	Long: `Watch runs until interrupted, importing the given feed URL at each
firing of a standard 5-field cron schedule. Import failures are logged
and the loop keeps going.

Example:
  triage watch --url https://support.example.com/export/tickets.csv --schedule "0 * * * *"
  triage watch --url https://support.example.com/feed.json --schedule "*/15 * * * *" --auto-classify`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "0 * * * *", "cron schedule (minute hour dom month dow)")
	watchCmd.Flags().StringVar(&watchURL, "url", "", "feed URL to import (required)")
	watchCmd.Flags().StringVar(&watchFormat, "format", "", "payload format (csv, json, xml); detected when empty")
	watchCmd.Flags().BoolVar(&watchAuto, "auto-classify", true, "classify each created ticket immediately")
	_ = watchCmd.MarkFlagRequired("url")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	imp, st, err := buildImporter(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	watcher, err := sched.NewWatcher(watchSchedule, func(ctx context.Context) (*model.ImportSummary, error) {
		return imp.ImportURL(ctx, watchURL, watchFormat, watchAuto, false)
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s (schedule: %s), Ctrl-C to stop\n", watchURL, watchSchedule)
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
