package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/ncm-grabber/internal/config"
	"github.com/oshokin/ncm-grabber/internal/logger"
)

var (
	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}

	//nolint:gochecknoglobals // Cobra command requires a global definition.
	configSetCmd = &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a single configuration value, keeping the rest of the file intact.",
		Args:  cobra.ExactArgs(2), //nolint:mnd // Key and value.
		Run: func(cmd *cobra.Command, args []string) {
			if err := config.SetConfigValue(configFilenameFromFlag, args[0], args[1]); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to update configuration: %v", err)
			}

			logger.Infof(cmd.Context(), "Set %s = %s", args[0], args[1])
		},
	}
)

//nolint:gochecknoinits // Cobra requires the init function to register subcommands.
func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
