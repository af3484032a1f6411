package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/casehq/triage/internal/model"
)

var (
	importFormat  string
	importAuto    bool
	importDryRun  bool
	importJSON    bool
	importTimeout time.Duration
	importNoCache bool
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <path|url>",
	Short: "Bulk-import tickets from a CSV, JSON, or XML payload",
	Long: `Import loads tickets from a local file or a remote feed:
- Detect the format from the file extension or response Content-Type
- Validate every record; rejected rows never abort the batch
- Optionally classify each created ticket immediately

Example:
  triage import tickets.csv
  triage import tickets.json --auto-classify
  triage import https://support.example.com/export/tickets.xml
  triage import export.dat --format csv --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFormat, "format", "", "payload format (csv, json, xml); detected when empty")
	importCmd.Flags().BoolVar(&importAuto, "auto-classify", false, "classify each created ticket immediately")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate without storing anything")
	importCmd.Flags().BoolVar(&importJSON, "json", false, "print the summary as JSON")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 2*time.Minute, "overall import timeout")
	importCmd.Flags().BoolVar(&importNoCache, "no-cache", false, "disable the feed payload cache (force fresh fetch)")
}

func runImport(cmd *cobra.Command, args []string) error {
	source := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if importNoCache {
		cfg.Cache.Enabled = false
	}
	if importDryRun {
		// Nothing is written, so skip the on-disk store entirely.
		cfg.Store.Driver = "memory"
		cfg.Store.CacheTTL = 0
	}

	imp, st, err := buildImporter(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if verbose {
		fmt.Fprintf(os.Stderr, "Importing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Auto-classify: %v\n", importAuto)
		fmt.Fprintln(os.Stderr)
	}

	var summary *model.ImportSummary
	if isURL(source) {
		summary, err = imp.ImportURL(ctx, source, importFormat, importAuto, importDryRun)
	} else {
		summary, err = imp.ImportFile(ctx, source, importFormat, importAuto, importDryRun)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if importJSON {
		return printJSON(summary)
	}
	printImportSummary(source, summary, importDryRun)
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// printImportSummary renders one summary for humans.
func printImportSummary(source string, s *model.ImportSummary, dryRun bool) {
	verb := "created"
	if dryRun {
		verb = "valid (dry run)"
	}

	fmt.Printf("Import complete: %s\n", source)
	fmt.Printf("  Total rows:  %d\n", s.Total)
	fmt.Printf("  ✓ %s: %d\n", verb, s.Successful)
	fmt.Printf("  ✗ rejected: %d\n", s.Failed)

	for _, rowErr := range s.Errors {
		fmt.Printf("\n  Row %d:\n", rowErr.Row)
		for _, msg := range rowErr.Errors {
			fmt.Printf("    - %s\n", msg)
		}
	}
}
