package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spendsentry/spendsentry/pkg/model"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage category budgets",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or update a budget for a user and category",
	RunE:  runBudgetSet,
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show budget usage and alert flags",
	RunE:  runBudgetStatus,
}

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetSetCmd)
	budgetCmd.AddCommand(budgetStatusCmd)

	budgetSetCmd.Flags().StringP("user", "u", "", "User id")
	budgetSetCmd.Flags().StringP("category", "c", "", "Spending category")
	budgetSetCmd.Flags().Float64P("limit", "l", 0, "Monthly limit in USD")
	budgetSetCmd.Flags().StringP("month", "m", "", "Period key YYYY-MM (default: current month)")
	_ = budgetSetCmd.MarkFlagRequired("user")
	_ = budgetSetCmd.MarkFlagRequired("category")
	_ = budgetSetCmd.MarkFlagRequired("limit")
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetString("user")
	category, _ := cmd.Flags().GetString("category")
	limit, _ := cmd.Flags().GetFloat64("limit")
	month, _ := cmd.Flags().GetString("month")

	if month == "" {
		month = model.MonthKey(time.Now().UTC())
	} else if _, err := model.ParseMonthKey(month); err != nil {
		return err
	}

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	budget := &model.Budget{
		UserID:   userID,
		Category: category,
		Month:    month,
		LimitUSD: limit,
	}

	if err := store.CreateBudget(cmd.Context(), budget); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	fmt.Printf("Budget set:\n")
	fmt.Printf("  User:      %s\n", userID)
	fmt.Printf("  Category:  %s\n", category)
	fmt.Printf("  Month:     %s\n", month)
	fmt.Printf("  Limit:     $%.2f\n", limit)

	return nil
}

func runBudgetStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	budgets, err := store.ListAllBudgets(cmd.Context())
	if err != nil {
		return fmt.Errorf("list budgets: %w", err)
	}

	if len(budgets) == 0 {
		fmt.Println("No budgets configured. Use 'spendsentry budget set' to create one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "USER\tCATEGORY\tMONTH\tLIMIT\tSPENT\tUSAGE\tFLAGS\n")
	for _, b := range budgets {
		monthStart, err := model.ParseMonthKey(b.Month)
		if err != nil {
			return err
		}
		start, end := model.MonthBounds(monthStart)

		spent, err := store.SumTransactions(cmd.Context(), b.UserID, b.Category, start, end)
		if err != nil {
			return fmt.Errorf("sum transactions: %w", err)
		}

		pct := float64(0)
		if b.LimitUSD > 0 {
			pct = (spent / b.LimitUSD) * 100
		}

		flags := ""
		if b.SeventyFivePctSent {
			flags += "75 "
		}
		if b.NinetyPctSent {
			flags += "90 "
		}
		if b.OverageSent {
			flags += "100"
		}
		if flags == "" {
			flags = "-"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t$%.2f\t$%.2f\t%.1f%%\t%s\n",
			b.UserID, b.Category, b.Month, b.LimitUSD, spent, pct, flags,
		)
	}
	w.Flush()

	return nil
}
