package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	autoForce bool
	autoJSON  bool
)

// autoCmd represents the auto command
var autoCmd = &cobra.Command{
	Use:   "auto <ticket-id>",
	Short: "Classify a stored ticket and persist the result",
	Long: `Auto runs the keyword engine against a stored ticket's subject and
description and persists the resulting classification.

A classification marked as a manual override is returned untouched;
pass --force to re-classify past it.

Example:
  triage auto 7d1c2a9e-30b4-4f5e-9f3d-2f6f0a1b2c3d
  triage auto 7d1c2a9e-30b4-4f5e-9f3d-2f6f0a1b2c3d --force`,
	Args: cobra.ExactArgs(1),
	RunE: runAuto,
}

func init() {
	rootCmd.AddCommand(autoCmd)

	autoCmd.Flags().BoolVar(&autoForce, "force", false, "re-classify even past a manual override")
	autoCmd.Flags().BoolVar(&autoJSON, "json", false, "print the result as JSON")
}

func runAuto(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	imp, st, err := buildImporter(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	result, err := imp.AutoClassify(args[0], autoForce)
	if err != nil {
		return fmt.Errorf("classify ticket: %w", err)
	}

	if autoJSON {
		return printJSON(result)
	}
	printClassification(result)
	return nil
}
