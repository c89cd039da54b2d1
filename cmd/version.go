package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/ncm-grabber/internal/version"
)

//nolint:gochecknoglobals // Cobra command requires a global definition.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information.",
	Args:  cobra.NoArgs,
	// The configuration file is irrelevant here.
	PersistentPreRun: func(_ *cobra.Command, _ []string) {},
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full()) //nolint:errcheck // Console output.
	},
}

//nolint:gochecknoinits // Cobra requires the init function to register subcommands.
func init() {
	rootCmd.AddCommand(versionCmd)
}
