package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configureBuildDir string
	configureFlags    *configFlags
)

var configureCmd = &cobra.Command{
	Use:   "configure-cmd",
	Short: "Print the runConfigureICU command line",
	Long: `Configure-cmd prints the command that build runs inside the ICU build
directory for the resolved configuration. Nothing is fetched or created.`,
	Args: cobra.NoArgs,
	RunE: runConfigureCmd,
}

func init() {
	configureFlags = addConfigFlags(configureCmd)
	configureCmd.Flags().StringVar(&configureBuildDir, "build-folder", ".", "Build folder the source and build dirs are relative to")
	rootCmd.AddCommand(configureCmd)
}

func runConfigureCmd(cmd *cobra.Command, args []string) error {
	r, err := configureFlags.recipe(cmd)
	if err != nil {
		return err
	}
	cfg := r.Plan(configureBuildDir)
	fmt.Fprintln(cmd.OutOrStdout(), cfg.ConfigureCommand())
	return nil
}
