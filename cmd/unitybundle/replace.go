package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/unitybundle"
)

var replaceRemove bool

var replaceCmd = &cobra.Command{
	Use:   "replace <bundle> <entry> [content-file] -o <output>",
	Short: "Replace or remove one entry and rewrite the bundle",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !replaceRemove && len(args) != 3 {
			return fmt.Errorf("a content file is required unless --remove is set")
		}

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
			return fmt.Errorf("bundle must be unpacked before replacing entries")
		}

		idx := b.FindFile(args[1])
		if idx == -1 {
			return fmt.Errorf("entry %q not found", args[1])
		}

		if replaceRemove {
			b.Info.DirectoryInfos[idx].Replacer = unitybundle.RemoveReplacer()
		} else {
			content, err := os.ReadFile(args[2])
			if err != nil {
				return fmt.Errorf("reading replacement content: %w", err)
			}
			b.Info.DirectoryInfos[idx].Replacer = unitybundle.BytesReplacer(content)
		}

		out, err := os.Create(replaceOutput)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer out.Close()

		if err := b.Write(out); err != nil {
			return fmt.Errorf("rewriting bundle: %w", err)
		}

		return nil
	},
}

var replaceOutput string

func init() {
	rootCmd.AddCommand(replaceCmd)
	replaceCmd.Flags().StringVarP(&replaceOutput, "output", "o", "", "output bundle path")
	replaceCmd.Flags().BoolVar(&replaceRemove, "remove", false, "remove the entry instead of replacing its content")
	replaceCmd.MarkFlagRequired("output")
}
