package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/progress"
	"github.com/voxelbound/unitybundle/internal/unitybundle"
)

var (
	packCompression string
	packAtEnd       bool
)

var packCmd = &cobra.Command{
	Use:   "pack <bundle> <output>",
	Short: "Write a freshly compressed copy of a bundle",
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

		if b.DataIsCompressed {
			unpacked, err := os.CreateTemp("", "unitybundle-unpack-*")
			if err != nil {
				return fmt.Errorf("creating temp file: %w", err)
			}
			defer os.Remove(unpacked.Name())
			defer unpacked.Close()

			if err := unitybundle.Unpack(b, unpacked); err != nil {
				return fmt.Errorf("unpacking before pack: %w", err)
			}
			if _, err := unpacked.Seek(0, 0); err != nil {
				return fmt.Errorf("seeking temp file: %w", err)
			}

			b, err = unitybundle.Read(unpacked)
			if err != nil {
				return fmt.Errorf("re-reading unpacked bundle: %w", err)
			}
		}

		if !cmd.Flags().Changed("compression") {
			packCompression = cfg.PackCompression
		}

		var compression unitybundle.CompressionType
		switch packCompression {
		case "none":
			compression = unitybundle.CompressionNone
		case "lzma":
			compression = unitybundle.CompressionLZMA
		default:
			return fmt.Errorf("unsupported pack compression %q", packCompression)
		}

		out, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer out.Close()

		bar := progress.New(1, !noProgress)
		opts := unitybundle.PackOptions{
			Compression:   compression,
			BlockDirAtEnd: packAtEnd,
			OnBlockComplete: func(compressedSize int64) {
				bar.Update(1, fmt.Sprintf("wrote %s bytes", progress.Number(compressedSize)), compressedSize)
			},
		}
		if err := unitybundle.Pack(b, out, opts); err != nil {
			return fmt.Errorf("packing bundle: %w", err)
		}
		bar.Finish()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().StringVar(&packCompression, "compression", "lzma", "payload compression: none or lzma")
	packCmd.Flags().BoolVar(&packAtEnd, "block-dir-at-end", false, "store the listing after the data region")
}
