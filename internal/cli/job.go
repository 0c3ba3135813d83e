package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spendsentry/spendsentry/pkg/engine"
)

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Run a scheduled notification job once",
	Long: `Each subcommand is one scheduler entry point; cron invokes them
on their own cadences (weekly tips, daily budgets, twice-daily prices,
daily milestones, monthly reset, weekly cleanup).`,
}

var jobTipsCmd = &cobra.Command{
	Use:   "tips",
	Short: "Send the weekly coaching tip",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJob(cmd, func(e *engine.Engine) (engine.RunSummary, error) {
			return e.RunCoachingTips(cmd.Context())
		})
	},
}

var jobBudgetsCmd = &cobra.Command{
	Use:   "budgets",
	Short: "Check budgets and send threshold alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJob(cmd, func(e *engine.Engine) (engine.RunSummary, error) {
			return e.RunBudgetAlerts(cmd.Context())
		})
	},
}

var jobPricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Check tracked items and send price-drop alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJob(cmd, func(e *engine.Engine) (engine.RunSummary, error) {
			return e.RunPriceDrops(cmd.Context())
		})
	},
}

var jobMilestonesCmd = &cobra.Command{
	Use:   "milestones",
	Short: "Check spending milestones and send achievements",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runJob(cmd, func(e *engine.Engine) (engine.RunSummary, error) {
			return e.RunMilestones(cmd.Context())
		})
	},
}

var jobResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear all budget alert flags for the new period",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, store, err := initEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := eng.ResetBudgetFlags(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("Reset alert flags for %d budgets\n", count)
		return nil
	},
}

var jobCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete notification audit records past the retention horizon",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		eng, store, err := initEngine(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := eng.PurgeNotifications(cmd.Context(), cfg.Retention.Days)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d old notifications\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobCmd)
	jobCmd.AddCommand(jobTipsCmd)
	jobCmd.AddCommand(jobBudgetsCmd)
	jobCmd.AddCommand(jobPricesCmd)
	jobCmd.AddCommand(jobMilestonesCmd)
	jobCmd.AddCommand(jobResetCmd)
	jobCmd.AddCommand(jobCleanupCmd)
}

func runJob(cmd *cobra.Command, run func(*engine.Engine) (engine.RunSummary, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	eng, store, err := initEngine(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := run(eng)
	if err != nil {
		return err
	}

	fmt.Println(summary.String())
	return nil
}
