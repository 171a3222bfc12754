package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var sourceFlags *configFlags

var sourceCmd = &cobra.Command{
	Use:   "source [dir]",
	Short: "Fetch and unpack the ICU sources",
	Long: `Source validates the configuration, then downloads the ICU release into
dir (default: the current directory) and renames it to dir/sources.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSource,
}

func init() {
	sourceFlags = addConfigFlags(sourceCmd)
	rootCmd.AddCommand(sourceCmd)
}

func runSource(cmd *cobra.Command, args []string) error {
	r, err := sourceFlags.recipe(cmd)
	if err != nil {
		return err
	}
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	r.BuildFolder = dir
	if err := r.Source(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, "sources"))
	return nil
}
