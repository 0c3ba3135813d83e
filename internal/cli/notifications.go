package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Inspect the notification audit log",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's notifications, newest first",
	RunE:  runNotificationsList,
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsListCmd)

	notificationsListCmd.Flags().StringP("user", "u", "", "User id")
	_ = notificationsListCmd.MarkFlagRequired("user")
}

func runNotificationsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	userID, _ := cmd.Flags().GetString("user")

	store, err := initStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	notifications, err := store.ListNotifications(cmd.Context(), userID)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	if len(notifications) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIME\tTYPE\tTITLE\tBODY\n")
	for _, n := range notifications {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			n.Timestamp.Format("2006-01-02 15:04"), n.Kind, n.Title, n.Body)
	}
	w.Flush()

	return nil
}
