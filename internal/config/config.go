package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all SpendSentry configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Push      PushConfig      `mapstructure:"push"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Retention RetentionConfig `mapstructure:"retention"`
	Tips      TipsConfig      `mapstructure:"tips"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// PushConfig defines notification delivery channels.
type PushConfig struct {
	FCM     FCMConfig     `mapstructure:"fcm"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// FCMConfig defines FCM-compatible push settings.
type FCMConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	ServerKey string `mapstructure:"server_key"`
}

// WebhookConfig defines generic webhook delivery settings.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
}

// EngineConfig defines job execution settings.
type EngineConfig struct {
	Workers int `mapstructure:"workers"`
}

// RetentionConfig defines the audit-log horizon.
type RetentionConfig struct {
	Days int `mapstructure:"days"`
}

// TipsConfig defines the coaching-tip catalog source.
type TipsConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".spendsentry"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("storage.path", filepath.Join(home, ".spendsentry", "sentry.db"))
	v.SetDefault("push.fcm.endpoint", "https://fcm.googleapis.com/fcm/send")
	v.SetDefault("engine.workers", 8)
	v.SetDefault("retention.days", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("SENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
