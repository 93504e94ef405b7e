package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/export"
	"github.com/voxelbound/unitybundle/internal/progress"
	"github.com/voxelbound/unitybundle/internal/unitybundle"
)

var (
	extractFiles  []string
	extractOutput string
)

// bundleLoader adapts a Bundle into export.FileLoader.
type bundleLoader struct {
	bundle *unitybundle.Bundle
}

func (l *bundleLoader) GetFile(name string) ([]byte, error) {
	i := l.bundle.FindFile(name)
	if i == -1 {
		return nil, fmt.Errorf("entry %q not found", name)
	}
	off, size := l.bundle.GetFileRange(i)
	buf := make([]byte, size)
	if _, err := l.bundle.ReadData(buf, off); err != nil {
		return nil, fmt.Errorf("reading entry %q: %w", name, err)
	}
	return buf, nil
}

var extractCmd = &cobra.Command{
	Use:   "extract <bundle>",
	Short: "Extract entries from a bundle to disk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening bundle: %w", err)
		}
		defer f.Close()

		b, err := unitybundle.Read(f)
		if err != nil {
			return fmt.Errorf("reading bundle: %w", err)
		}
		defer b.Close()

		names := extractFiles
		if len(names) == 0 {
			for i := 0; ; i++ {
				name := b.GetFileName(i)
				off, _ := b.GetFileRange(i)
				if off == -1 {
					break
				}
				names = append(names, name)
			}
		}

		bar := progress.New(len(names), !noProgress)
		exporter := export.NewExporter(&bundleLoader{bundle: b}, extractOutput)
		if err := exporter.ExportFiles(names, func(current, total int, description string) {
			bar.Update(current, description)
		}); err != nil {
			return fmt.Errorf("extracting entries: %w", err)
		}
		bar.Finish()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringSliceVar(&extractFiles, "files", nil, "comma-separated list of entry names to extract (default: all)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "extracted", "output directory")
}
