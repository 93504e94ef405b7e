package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/config"
)

var (
	cfg     *config.Config
	cfgFile string

	baseURL     string
	cacheDir    string
	catalogPath string
	logLevel    string
	logFormat   string
	noProgress  bool
)

var rootCmd = &cobra.Command{
	Use:   "unitybundle",
	Short: "Inspect, extract, rewrite, and repack Unity AssetBundle files",
	Long: `unitybundle reads, rewrites, repacks, and unpacks UnityFS container
files, and resolves asset class information from class database files.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("base-url") {
			cfg.BaseURL = baseURL
		}
		if cmd.Flags().Changed("cache-dir") {
			cfg.CacheDir = cacheDir
		}
		if cmd.Flags().Changed("catalog") {
			cfg.CatalogPath = catalogPath
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
		}

		slog.SetDefault(slog.New(handler))

		slog.Debug("configuration",
			"base_url", cfg.BaseURL,
			"cache_dir", cfg.CacheDir,
			"catalog_path", cfg.CatalogPath,
			"log_level", cfg.LogLevel,
			"log_format", cfg.LogFormat)

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is unitybundle.yaml in $HOME, then in the current directory)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "base URL to fetch bundles and the class database manifest from")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "directory to cache downloaded bundles in")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "path to the directory-entry catalog database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
