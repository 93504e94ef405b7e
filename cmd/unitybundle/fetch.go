package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/cache"
	"github.com/voxelbound/unitybundle/internal/fetch"
)

var (
	fetchBundles []string
	fetchForce   bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the class database manifest and named bundles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.BaseURL == "" {
			return fmt.Errorf("base-url is required")
		}

		c := cache.New(cfg.CacheDir)
		f := fetch.New(cfg.BaseURL, c)

		ctx := context.Background()
		if err := f.DownloadManifest(ctx, fetchForce); err != nil {
			return fmt.Errorf("downloading manifest: %w", err)
		}

		if len(fetchBundles) == 0 {
			return nil
		}

		names := make([]string, 0, len(fetchBundles))
		for _, n := range fetchBundles {
			names = append(names, strings.TrimSpace(n))
		}

		return f.DownloadBundles(ctx, names, fetchForce, !noProgress)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringSliceVar(&fetchBundles, "bundles", nil, "comma-separated list of bundle names to download")
	fetchCmd.Flags().BoolVar(&fetchForce, "force", false, "re-download even if already cached")
}
