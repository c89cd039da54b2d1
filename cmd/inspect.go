package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/ncm-grabber/internal/app"
)

//nolint:gochecknoglobals // Cobra command requires a global definition.
var inspectCmd = &cobra.Command{
	Use:   "inspect {files}",
	Short: "Print the tags of downloaded audio files.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app.ExecuteInspectCommand(cmd.Context(), args)
	},
}

//nolint:gochecknoinits // Cobra requires the init function to register subcommands.
func init() {
	rootCmd.AddCommand(inspectCmd)
}
