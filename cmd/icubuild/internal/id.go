package internal

import (
	"fmt"

	"github.com/spf13/cobra"
)

var idFlags *configFlags

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Print the package id of a configuration",
	Long: `Id prints the identity of the package built for the resolved
configuration. Only the build machine's OS and architecture take part in it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := idFlags.recipe(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), r.PackageID())
		return nil
	},
}

func init() {
	idFlags = addConfigFlags(idCmd)
	rootCmd.AddCommand(idCmd)
}
