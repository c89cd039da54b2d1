package app

import (
	"context"
	"os"

	ncm_client "github.com/oshokin/ncm-grabber/internal/client/ncm"
	"github.com/oshokin/ncm-grabber/internal/config"
	"github.com/oshokin/ncm-grabber/internal/logger"
	ncm_service "github.com/oshokin/ncm-grabber/internal/service/ncm"
)

// ExecuteRootCommand is the entry point for the application.
// It initializes the catalog client, sets up the pipeline components,
// and downloads the songs or programs named by args.
func ExecuteRootCommand(ctx context.Context, cfg *config.Config, args []string, programs bool) {
	client, err := ncm_client.NewClient(ctx, cfg)
	if err != nil {
		logger.Fatalf(ctx, "Failed to initialize catalog client: %v", err)
	}

	s := ncm_service.NewService(cfg, client, ncm_service.NewURLProcessor(), newTrackAssembler(cfg, client))

	// Ensure statistics are ALWAYS printed, even on panic.
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf(ctx, "Panic recovered: %v", r)
		}

		s.PrintDownloadSummary(ctx)
	}()

	defaultKind := ncm_service.TrackKindSong
	if programs {
		defaultKind = ncm_service.TrackKindEpisode
	}

	s.DownloadItems(ctx, args, defaultKind)
}

func newTrackAssembler(cfg *config.Config, client ncm_client.Client) ncm_service.TrackAssembler {
	downloader := ncm_service.NewStreamingDownloader(
		ncm_service.WithSpeedLimit(cfg.ParsedDownloadSpeedLimit),
		ncm_service.WithProgressTrackerFactory(
			ncm_service.NewProgressTrackerFactory(cfg.ProgressStyle, cfg.MaxConcurrentDownloads, os.Stdout)),
	)

	writer := ncm_service.NewMetadataWriter(ncm_service.MetadataWriterConfig{
		TagVersion:          cfg.TagVersion,
		LyricsLanguage:      cfg.LyricsLanguage,
		CoverLegacyEncoding: cfg.CoverLegacyEncoding,
	})

	return ncm_service.NewTrackAssembler(
		client,
		downloader,
		ncm_service.NewCoverResizer(cfg.CoverMaxSize, cfg.CoverQuality),
		writer,
		ncm_service.NewPathBuilder(cfg.OutputPath, cfg.SongNameType, cfg.SongFolderType),
		ncm_service.AssemblerOptions{
			AudioLevel:     cfg.AudioLevel,
			DownloadLyrics: cfg.DownloadLyrics,
		},
	)
}
