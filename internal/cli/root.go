package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spendsentry/spendsentry/internal/config"
	"github.com/spendsentry/spendsentry/pkg/engine"
	"github.com/spendsentry/spendsentry/pkg/pricefeed"
	"github.com/spendsentry/spendsentry/pkg/push"
	"github.com/spendsentry/spendsentry/pkg/storage"
	"github.com/spendsentry/spendsentry/pkg/tips"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "spendsentry",
	Short: "SpendSentry - scheduled spending alerts and milestones",
	Long: `SpendSentry evaluates per-user financial conditions on a schedule:
budget overages, spending milestones, price drops on tracked items and
weekly coaching tips. Each condition fires exactly one push notification
and is durably marked as sent. Point your cron at the 'job' subcommands.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.spendsentry/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStore creates a storage backend from config.
func initStore(cfg *config.Config) (storage.Store, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initDispatcher builds the configured push channel. Jobs cannot run
// without one.
func initDispatcher(cfg *config.Config) (push.Dispatcher, error) {
	var dispatchers []push.Dispatcher

	if cfg.Push.FCM.Enabled && cfg.Push.FCM.Endpoint != "" {
		dispatchers = append(dispatchers, push.NewFCMDispatcher(
			cfg.Push.FCM.Endpoint,
			cfg.Push.FCM.ServerKey,
		))
	}

	if cfg.Push.Webhook.Enabled && cfg.Push.Webhook.URL != "" {
		dispatchers = append(dispatchers, push.NewWebhookDispatcher(
			cfg.Push.Webhook.URL,
			cfg.Push.Webhook.Secret,
		))
	}

	if len(dispatchers) == 0 {
		return nil, errors.New("no push channel configured: enable push.fcm or push.webhook")
	}
	if len(dispatchers) == 1 {
		return dispatchers[0], nil
	}
	return push.NewFanout(dispatchers...)
}

// initTips loads the coaching-tip catalog, falling back to the
// built-in one.
func initTips(cfg *config.Config) (*tips.Catalog, error) {
	if cfg.Tips.Path == "" {
		return tips.Default(), nil
	}
	return tips.LoadCatalog(cfg.Tips.Path)
}

// initEngine creates a fully wired engine.
func initEngine(cfg *config.Config) (*engine.Engine, storage.Store, error) {
	logger := newLogger(cfg)

	store, err := initStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	dispatcher, err := initDispatcher(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	catalog, err := initTips(cfg)
	if err != nil {
		store.Close()
		return nil, nil, err
	}

	feed := pricefeed.NewRandomWalk(nil)
	eng := engine.New(store, dispatcher, feed, catalog, logger, cfg.Engine.Workers)
	return eng, store, nil
}
