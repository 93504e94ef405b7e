package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/unitybundle"
)

var unpackCmd = &cobra.Command{
	Use:   "unpack <bundle> <output>",
	Short: "Write a fully decompressed copy of a bundle",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening bundle: %w", err)
		}
		defer in.Close()

		b, err := unitybundle.Read(in)
		if err != nil {
			return fmt.Errorf("reading bundle: %w", err)
		}
		defer b.Close()

		out, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer out.Close()

		if err := unitybundle.Unpack(b, out); err != nil {
			return fmt.Errorf("unpacking bundle: %w", err)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(unpackCmd)
}
