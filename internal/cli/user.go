package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spendsentry/spendsentry/pkg/model"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a user and their notification preferences",
	RunE:  runUserAdd,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userAddCmd)

	userAddCmd.Flags().String("id", "", "User id (default: generated)")
	userAddCmd.Flags().StringP("token", "t", "", "FCM device token")
	userAddCmd.Flags().Bool("budget-alerts", true, "Opt in to budget alerts")
	userAddCmd.Flags().Bool("price-drops", true, "Opt in to price drop alerts")
	userAddCmd.Flags().Bool("insights", true, "Opt in to weekly coaching tips")
}

func runUserAdd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	id, _ := cmd.Flags().GetString("id")
	token, _ := cmd.Flags().GetString("token")
	budgetAlerts, _ := cmd.Flags().GetBool("budget-alerts")
	priceDrops, _ := cmd.Flags().GetBool("price-drops")
	insights, _ := cmd.Flags().GetBool("insights")

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	user := &model.User{
		ID:       id,
		FCMToken: token,
		Settings: model.NotificationSettings{
			Enabled:          true,
			BudgetAlerts:     budgetAlerts,
			PriceDrops:       priceDrops,
			SpendingInsights: insights,
		},
	}

	if err := store.CreateUser(cmd.Context(), user); err != nil {
		return fmt.Errorf("add user: %w", err)
	}

	fmt.Printf("User added: %s\n", user.ID)
	return nil
}
