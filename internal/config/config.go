package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Settings SettingsConfig `mapstructure:"settings"`
	History  HistoryConfig  `mapstructure:"history"`
	Image    ImageConfig    `mapstructure:"image"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type SettingsConfig struct {
	Path string `mapstructure:"path"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DBPath  string `mapstructure:"db_path"`
}

type ImageConfig struct {
	JPEGQuality int `mapstructure:"jpeg_quality"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	JSONFormat bool   `mapstructure:"json_format"`
}

// Load reads config.yaml, environment variables and, when flags is not nil,
// command line flags bound by their config key name.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("settings.path", "_image_inversion_config.yml")
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.db_path", "data/history.db")
	v.SetDefault("image.jpeg_quality", 95)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json_format", false)

	// Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("$HOME/.config/image-inverter")

	// Environment variables
	v.SetEnvPrefix("IMAGE_INVERTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found is OK, use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// flagKeys maps config keys onto the persistent flags of the command line
var flagKeys = map[string]string{
	"settings.path":   "settings",
	"history.db_path": "history-db",
	"logging.level":   "log-level",
}

func (c *Config) Validate() error {
	if c.Settings.Path == "" {
		return fmt.Errorf("settings.path is required")
	}
	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path is required when history is enabled")
	}
	if c.Image.JPEGQuality < 1 || c.Image.JPEGQuality > 100 {
		return fmt.Errorf("image.jpeg_quality must be between 1 and 100")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	return nil
}
