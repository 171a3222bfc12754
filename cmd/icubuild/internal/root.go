package internal

import (
	"github.com/qiniu/x/log"
	"github.com/spf13/cobra"
)

var (
	rootVerbose bool
	rootWorkDir string
)

var rootCmd = &cobra.Command{
	Use:   "icubuild",
	Short: "icubuild builds ICU for cross-compilation packages",
	Long: `icubuild downloads an ICU release, configures it with runConfigureICU,
builds it with the native toolchain and stages the build tree, license and
link metadata into a package directory.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if rootVerbose {
			log.SetOutputLevel(log.Ldebug)
		} else {
			log.SetOutputLevel(log.Linfo)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&rootWorkDir, "workdir", "", "Workspace directory (default <user cache>/.icubuild)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal(err)
	}
}
