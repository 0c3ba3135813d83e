package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spendsentry/spendsentry/pkg/model"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Manage price watches",
}

var trackAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Start tracking an item's price for a user",
	RunE:  runTrackAdd,
}

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Manage transactions",
}

var txAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a transaction",
	RunE:  runTxAdd,
}

func init() {
	rootCmd.AddCommand(trackCmd)
	trackCmd.AddCommand(trackAddCmd)
	rootCmd.AddCommand(txCmd)
	txCmd.AddCommand(txAddCmd)

	trackAddCmd.Flags().StringP("user", "u", "", "User id")
	trackAddCmd.Flags().StringP("item", "i", "", "Item name")
	trackAddCmd.Flags().Float64("target", 0, "Target price in USD")
	trackAddCmd.Flags().Float64("price", 0, "Current known price in USD")
	_ = trackAddCmd.MarkFlagRequired("user")
	_ = trackAddCmd.MarkFlagRequired("item")
	_ = trackAddCmd.MarkFlagRequired("target")
	_ = trackAddCmd.MarkFlagRequired("price")

	txAddCmd.Flags().StringP("user", "u", "", "User id")
	txAddCmd.Flags().StringP("category", "c", "", "Spending category")
	txAddCmd.Flags().Float64P("amount", "a", 0, "Amount in USD")
	txAddCmd.Flags().String("type", model.TxExpense, "Transaction type (expense, income)")
	txAddCmd.Flags().String("date", "", "Date YYYY-MM-DD (default: today)")
	_ = txAddCmd.MarkFlagRequired("user")
	_ = txAddCmd.MarkFlagRequired("category")
	_ = txAddCmd.MarkFlagRequired("amount")
}

func runTrackAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetString("user")
	item, _ := cmd.Flags().GetString("item")
	target, _ := cmd.Flags().GetFloat64("target")
	price, _ := cmd.Flags().GetFloat64("price")

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	watch := &model.TrackedItem{
		UserID:         userID,
		ItemName:       item,
		TargetPrice:    target,
		LastKnownPrice: price,
		Active:         true,
	}

	if err := store.CreateTrackedItem(cmd.Context(), watch); err != nil {
		return fmt.Errorf("add tracked item: %w", err)
	}

	fmt.Printf("Tracking %s for %s (target $%.2f, current $%.2f)\n", item, userID, target, price)
	return nil
}

func runTxAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetString("user")
	category, _ := cmd.Flags().GetString("category")
	amount, _ := cmd.Flags().GetFloat64("amount")
	txType, _ := cmd.Flags().GetString("type")
	dateStr, _ := cmd.Flags().GetString("date")

	if txType != model.TxExpense && txType != model.TxIncome {
		return fmt.Errorf("invalid transaction type %q", txType)
	}

	date := time.Now().UTC()
	if dateStr != "" {
		date, err = time.ParseInLocation("2006-01-02", dateStr, time.UTC)
		if err != nil {
			return fmt.Errorf("parse date %q: %w", dateStr, err)
		}
	}

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	tx := &model.Transaction{
		UserID:    userID,
		Category:  category,
		Type:      txType,
		AmountUSD: amount,
		Date:      date,
	}

	if err := store.AddTransaction(cmd.Context(), tx); err != nil {
		return fmt.Errorf("add transaction: %w", err)
	}

	fmt.Printf("Recorded %s of $%.2f in %s for %s\n", txType, amount, category, userID)
	return nil
}
