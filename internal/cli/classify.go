package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/casehq/triage/internal/model"
)

var classifyJSON bool

// classifyCmd represents the classify command
var classifyCmd = &cobra.Command{
	Use:   "classify <subject> [description]",
	Short: "Classify ticket text without storing anything",
	Long: `Classify runs the keyword engine against ad hoc text and prints the
category, priority, confidences, and reasoning. Nothing is stored;
identical input always yields identical output.

Example:
  triage classify "Cannot login to my account" "Locked out after 3 failed attempts"
  triage classify "Feature request: dark mode" --json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "print the result as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
	subject := args[0]
	description := ""
	if len(args) == 2 {
		description = args[1]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	engine, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	result := engine.Classify(subject, description)

	if classifyJSON {
		return printJSON(result)
	}
	printClassification(result)
	return nil
}

// printClassification renders one result for humans.
func printClassification(r model.ClassificationResult) {
	fmt.Printf("Category:  %s (confidence %.2f)\n", r.Category, r.CategoryConfidence)
	fmt.Printf("Priority:  %s (confidence %.2f)\n", r.Priority, r.PriorityConfidence)
	fmt.Printf("Overall:   %.2f\n", r.OverallConfidence)
	fmt.Printf("Reasoning: %s\n", r.Reasoning.Category)
	fmt.Printf("           %s\n", r.Reasoning.Priority)
	if len(r.KeywordsFound) > 0 {
		fmt.Printf("Keywords:  %s\n", strings.Join(r.KeywordsFound, ", "))
	}
}

// printJSON renders any value as indented JSON on stdout.
func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
