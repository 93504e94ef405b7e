// Package config loads unitybundle's CLI configuration from a YAML file
// via viper, with defaults for unset keys. Environment variables are not
// read; command-line flag overrides are applied by the caller.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds settings shared across unitybundle's subcommands.
type Config struct {
	// BaseURL is the remote content host bundles and the class
	// database manifest are fetched from.
	BaseURL string `mapstructure:"base_url"`
	// CacheDir is where downloaded bundles and the manifest are stored.
	CacheDir string `mapstructure:"cache_dir"`
	// CatalogPath is the SQLite directory-entry index path.
	CatalogPath string `mapstructure:"catalog_path"`
	// PackCompression selects Pack's payload codec: "none" or "lzma".
	PackCompression string `mapstructure:"pack_compression"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
}

// Load initializes and loads configuration from file.
func Load(cfgFile string) (*Config, error) {
	viper.SetDefault("cache_dir", "")
	viper.SetDefault("catalog_path", "unitybundle.db")
	viper.SetDefault("pack_compression", "lzma")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName("unitybundle")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validatePackCompression(cfg.PackCompression); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func validatePackCompression(v string) error {
	switch v {
	case "none", "lzma":
		return nil
	default:
		return fmt.Errorf("pack_compression must be \"none\" or \"lzma\", got %q", v)
	}
}
