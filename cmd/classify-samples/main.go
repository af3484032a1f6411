// Demo program that runs the keyword engine over representative ticket
// texts and prints the full classification for each.
package main

import (
	"fmt"
	"strings"

	"github.com/casehq/triage/internal/classify"
)

type sample struct {
	subject     string
	description string
}

func main() {
	fmt.Println("=== Keyword Classification Samples ===")
	fmt.Println()

	samples := []sample{
		{
			subject:     "Cannot login to my account",
			description: "I've been locked out after 3 failed login attempts. Password reset not working.",
		},
		{
			subject:     "Feature request: dark mode",
			description: "It would be nice to have a dark mode option in the dashboard.",
		},
		{
			subject:     "Invoice shows double charge",
			description: "My last invoice charged me twice for the same subscription. I need a refund.",
		},
		{
			subject:     "Production down",
			description: "Our integration stopped responding an hour ago. This is critical, customers are affected.",
		},
		{
			subject:     "Weekly report",
			description: "Please find attached the weekly usage report.",
		},
	}

	engine := classify.NewEngine(classify.DefaultRuleSet())

	for _, s := range samples {
		fmt.Printf("Subject: %s\n", s.subject)
		fmt.Println(strings.Repeat("-", 60))

		result := engine.Classify(s.subject, s.description)

		fmt.Printf("  Category:  %s (confidence %.2f)\n", result.Category, result.CategoryConfidence)
		fmt.Printf("  Priority:  %s (confidence %.2f)\n", result.Priority, result.PriorityConfidence)
		fmt.Printf("  Overall:   %.2f\n", result.OverallConfidence)
		fmt.Printf("  Reasoning: %s\n", result.Reasoning.Category)
		fmt.Printf("             %s\n", result.Reasoning.Priority)
		if len(result.KeywordsFound) > 0 {
			fmt.Printf("  Keywords:  %s\n", strings.Join(result.KeywordsFound, ", "))
		}
		fmt.Println()
	}

	fmt.Println("=== Samples Complete ===")
	fmt.Println()
	fmt.Println("Note: identical input always yields identical output.")
	fmt.Println("Text matching no keywords falls back to other/medium with low confidence.")
}
