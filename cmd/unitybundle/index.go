package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/catalog"
	"github.com/voxelbound/unitybundle/internal/unitybundle"
)

var indexCmd = &cobra.Command{
	Use:   "index <bundle>...",
	Short: "Index the directory entries of one or more bundles into the catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Open(catalog.DefaultOptions(cfg.CatalogPath))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer cat.Close()

		ctx := context.Background()
		for _, path := range args {
			if err := indexOne(ctx, cat, path); err != nil {
				return fmt.Errorf("indexing %s: %w", path, err)
			}
		}
		return nil
	},
}

func indexOne(ctx context.Context, cat *catalog.Catalog, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := unitybundle.Read(f)
	if err != nil {
		return err
	}
	defer b.Close()

	var entries []catalog.Entry
	for i := 0; ; i++ {
		off, size := b.GetFileRange(i)
		if off == -1 {
			break
		}
		entries = append(entries, catalog.Entry{
			Name:             b.GetFileName(i),
			BundlePath:       path,
			Offset:           off,
			DecompressedSize: size,
			Flags:            b.Info.DirectoryInfos[i].Flags,
		})
	}

	return cat.PutAll(ctx, entries)
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
