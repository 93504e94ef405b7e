package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelbound/unitybundle/internal/byteio"
	"github.com/voxelbound/unitybundle/internal/classdb"
)

var classdbCmd = &cobra.Command{
	Use:   "classdb",
	Short: "Inspect class database files",
}

var classdbInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print a summary of a class database file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening class database: %w", err)
		}
		defer f.Close()

		file, err := classdb.Read(byteio.NewReader(f))
		if err != nil {
			return fmt.Errorf("reading class database: %w", err)
		}

		fmt.Printf("version=%d compression=%d classes=%d strings=%d common=%d\n",
			file.Header.Version, file.Header.Compression,
			len(file.Classes), len(file.StringTable), len(file.CommonStringBufferIndices))

		for _, c := range file.Classes {
			fmt.Printf("  id=%-8d base=%-8d name=%s\n", c.ID, c.BaseID, file.GetString(c.NameIdx))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(classdbCmd)
	classdbCmd.AddCommand(classdbInspectCmd)
}
