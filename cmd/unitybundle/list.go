package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/unitybundle"
)

var listCmd = &cobra.Command{
	Use:   "list <bundle>",
	Short: "List the directory entries of a bundle",
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

		for i := 0; ; i++ {
			off, size := b.GetFileRange(i)
			if off == -1 {
				break
			}
			fmt.Printf("%-60s offset=%-12d size=%d\n", b.GetFileName(i), off, size)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
