package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/oshokin/ncm-grabber/internal/app"
	"github.com/oshokin/ncm-grabber/internal/config"
	"github.com/oshokin/ncm-grabber/internal/logger"
)

var (
	//nolint:gochecknoglobals // It is required for configuration initialization before the application starts.
	configFilenameFromFlag string

	//nolint:gochecknoglobals,lll // It is initialized once during the application's startup and shared across the command execution logic.
	appConfig *config.Config

	//nolint:gochecknoglobals,lll // Cobra command requires a global definition for proper command-line parsing and execution.
	rootCmd = &cobra.Command{
		Use:   "ncm-grabber [flags] {ids|urls|file.txt}",
		Short: "Download songs or radio program episodes with cover, lyrics and tags.",
		Long: `NCM Grabber downloads audio from the NetEase Cloud Music catalog.
Arguments are song IDs, song/program/dj URLs, or .txt files with one argument per line.
Bare IDs are songs unless --program is set.

Every file is tagged with title, artist, album, track number, cover and lyrics:
ID3v2 for MP3 and Vorbis comments for FLAC.`,
		Args:             cobra.MinimumNArgs(1),
		PersistentPreRun: initConfig,
		Run: func(cmd *cobra.Command, args []string) {
			if err := bindFlagsToConfig(cmd.Flags(), appConfig); err != nil {
				logger.Fatalf(cmd.Context(), "Failed to parse flags: %v", err)
			}

			logger.SetLevel(appConfig.ParsedLogLevel)

			programs, _ := cmd.Flags().GetBool("program")

			app.ExecuteRootCommand(cmd.Context(), appConfig, args, programs)
		},
	}
)

// Execute executes the root command.
func Execute() {
	signals := []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM}
	ctx, stop := signal.NotifyContext(context.Background(), signals...)

	defer func() {
		_ = logger.Logger().Sync()
	}()

	defer stop()

	err := runUntilDone(ctx, stop, rootCmd.ExecuteContext)
	cobra.CheckErr(err)
}

// runUntilDone runs run in the background and returns only after it has finished.
// Once ctx is done, stop is called so that a repeated signal terminates the process.
func runUntilDone(ctx context.Context, stop context.CancelFunc, run func(context.Context) error) error {
	done := make(chan error, 1)

	go func() {
		done <- run(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		stop()

		logger.Warn(ctx, "Interrupted, waiting for started downloads to finish (repeat to force quit)")

		return <-done
	}
}

//nolint:gochecknoinits // Cobra requires the init function to set up flags before the command is executed.
func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configFilenameFromFlag,
		"config",
		"c",
		"",
		fmt.Sprintf("path to the configuration file (default is '%s')",
			config.DefaultConfigFilename))

	registerDownloadFlags(rootCmd.Flags())
}

// registerDownloadFlags declares the flags that override download settings.
func registerDownloadFlags(flags *pflag.FlagSet) {
	flags.StringP(
		"output",
		"o",
		"",
		"directory to save downloaded files (the path will be created if it doesn’t exist).")

	flags.BoolP(
		"lyrics",
		"l",
		false,
		"download and embed lyrics if available.")

	flags.StringP(
		"speed-limit",
		"s",
		"",
		"set download speed limit, for example: 500 kbps, 1 mbps, 1.5 mbps.")

	flags.Uint8P(
		"name-type",
		"n",
		0,
		"file name scheme: 1 = title, 2 = artist - title, 3 = title - artist.")

	flags.Uint8P(
		"folder-type",
		"d",
		0,
		"folder scheme: 1 = flat, 2 = artist, 3 = artist/album.")

	flags.String(
		"level",
		"",
		"audio quality level: standard, higher, exhigh, lossless.")

	flags.Int64(
		"concurrency",
		0,
		"number of tracks processed at once.")

	flags.BoolP(
		"program",
		"p",
		false,
		"treat bare IDs as radio program IDs.")
}

func initConfig(cmd *cobra.Command, _ []string) {
	var err error

	appConfig, err = config.LoadConfig(configFilenameFromFlag)
	if err != nil {
		logger.Fatalf(cmd.Context(), "Failed to load configuration: %v", err)
	}

	if level, ok := logger.ParseLogLevel(appConfig.LogLevel); ok {
		logger.SetLevel(level)
	}
}

//nolint:cyclop // One branch per flag.
func bindFlagsToConfig(flags *pflag.FlagSet, cfg *config.Config) error {
	if flag := flags.Lookup("output"); flag != nil && flag.Changed {
		cfg.OutputPath, _ = flags.GetString("output")
	}

	if flag := flags.Lookup("lyrics"); flag != nil && flag.Changed {
		cfg.DownloadLyrics, _ = flags.GetBool("lyrics")
	}

	if flag := flags.Lookup("speed-limit"); flag != nil && flag.Changed {
		cfg.DownloadSpeedLimit, _ = flags.GetString("speed-limit")
	}

	if flag := flags.Lookup("name-type"); flag != nil && flag.Changed {
		cfg.SongNameType, _ = flags.GetUint8("name-type")
	}

	if flag := flags.Lookup("folder-type"); flag != nil && flag.Changed {
		cfg.SongFolderType, _ = flags.GetUint8("folder-type")
	}

	if flag := flags.Lookup("level"); flag != nil && flag.Changed {
		cfg.AudioLevel, _ = flags.GetString("level")
	}

	if flag := flags.Lookup("concurrency"); flag != nil && flag.Changed {
		cfg.MaxConcurrentDownloads, _ = flags.GetInt64("concurrency")
	}

	return config.ValidateConfig(cfg)
}
