package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casehq/triage/internal/model"
	"github.com/casehq/triage/internal/store"
)

var (
	listStatus   string
	listCategory string
	listPriority string
	listCustomer string
	listLimit    int
	listOffset   int
	listJSON     bool
	showJSON     bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tickets",
	Long: `List prints stored tickets in insertion order. All filters are
exact-match and combine as AND; category and priority filters only ever
match classified tickets.

Example:
  triage list
  triage list --status open --priority urgent
  triage list --customer C-1042 --limit 20 --offset 40 --json`,
	RunE: runList,
}

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show one ticket in full",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)

	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVar(&listCategory, "category", "", "filter by classified category")
	listCmd.Flags().StringVar(&listPriority, "priority", "", "filter by classified priority")
	listCmd.Flags().StringVar(&listCustomer, "customer", "", "filter by customer ID")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum tickets to print (0 = all)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "tickets to skip")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print tickets as JSON")

	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the ticket as JSON")
}

func buildListFilter() (store.ListFilter, error) {
	filter := store.ListFilter{
		CustomerID: listCustomer,
		Limit:      listLimit,
		Offset:     listOffset,
	}

	if listStatus != "" {
		status, err := model.ParseStatus(listStatus)
		if err != nil {
			return store.ListFilter{}, err
		}
		filter.Status = string(status)
	}
	if listCategory != "" {
		category, err := model.ParseCategory(listCategory)
		if err != nil {
			return store.ListFilter{}, err
		}
		filter.Category = string(category)
	}
	if listPriority != "" {
		priority, err := model.ParsePriority(listPriority)
		if err != nil {
			return store.ListFilter{}, err
		}
		filter.Priority = string(priority)
	}

	return filter, nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	filter, err := buildListFilter()
	if err != nil {
		return err
	}

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	tickets, err := st.List(filter)
	if err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}

	if listJSON {
		return printJSON(tickets)
	}

	if len(tickets) == 0 {
		fmt.Println("No tickets found")
		return nil
	}

	fmt.Printf("%-36s  %-11s  %-17s  %-8s  %s\n", "ID", "STATUS", "CATEGORY", "PRIORITY", "SUBJECT")
	for _, t := range tickets {
		category, priority := "-", "-"
		if t.Classification != nil {
			category = string(t.Classification.Category)
			priority = string(t.Classification.Priority)
		}
		fmt.Printf("%-36s  %-11s  %-17s  %-8s  %s\n", t.ID, t.Status, category, priority, t.Subject)
	}
	fmt.Printf("\n%d ticket(s)\n", len(tickets))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ticket, err := st.Get(args[0])
	if err != nil {
		return err
	}

	if showJSON {
		return printJSON(ticket)
	}

	fmt.Printf("ID:          %s\n", ticket.ID)
	fmt.Printf("Customer:    %s <%s> (%s)\n", ticket.CustomerName, ticket.CustomerEmail, ticket.CustomerID)
	fmt.Printf("Subject:     %s\n", ticket.Subject)
	fmt.Printf("Status:      %s\n", ticket.Status)
	fmt.Printf("Created:     %s\n", ticket.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:     %s\n", ticket.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Description: %s\n", ticket.Description)

	if len(ticket.Metadata) > 0 {
		fmt.Println("Metadata:")
		for k, v := range ticket.Metadata {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}

	if c := ticket.Classification; c != nil {
		fmt.Println("\nClassification:")
		fmt.Printf("  Category:  %s (confidence %.2f)\n", c.Category, c.CategoryConfidence)
		fmt.Printf("  Priority:  %s (confidence %.2f)\n", c.Priority, c.PriorityConfidence)
		fmt.Printf("  Overall:   %.2f\n", c.OverallConfidence)
		fmt.Printf("  Reasoning: %s\n", c.Reasoning.Category)
		fmt.Printf("             %s\n", c.Reasoning.Priority)
		fmt.Printf("  At:        %s\n", c.ClassifiedAt.Format("2006-01-02 15:04:05"))
		if c.ManualOverride {
			fmt.Println("  Manual override: yes")
		}
	} else {
		fmt.Println("\nNot classified")
	}
	return nil
}
