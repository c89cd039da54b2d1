package ncm

//go:generate $MOCKGEN -source=service.go -destination=mocks/service_mock.go

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/ncm-grabber/internal/client/ncm"
	"github.com/oshokin/ncm-grabber/internal/config"
	"github.com/oshokin/ncm-grabber/internal/constants"
	"github.com/oshokin/ncm-grabber/internal/logger"
)

// Service downloads and tags songs and program episodes.
type Service interface {
	// DownloadItems resolves the arguments into records and runs one pipeline per record.
	DownloadItems(ctx context.Context, args []string, defaultKind TrackKind)
	// PrintDownloadSummary prints a formatted summary of download statistics.
	PrintDownloadSummary(ctx context.Context)
	// Statistics returns a copy of the session statistics.
	Statistics() DownloadStatistics
}

// ServiceImpl implements Service.
type ServiceImpl struct {
	// cfg contains the application configuration.
	cfg *config.Config
	// client is the catalog client.
	client ncm.Client
	// urlProcessor parses command-line arguments.
	urlProcessor URLProcessor
	// assembler runs the per-track pipeline.
	assembler TrackAssembler
	// stats tracks download statistics for the current session.
	stats *DownloadStatistics
	// statsMutex protects concurrent access to statistics.
	statsMutex *sync.Mutex
}

// songsDetailBatchSize bounds the number of IDs in one song details request.
const songsDetailBatchSize = 100

// NewService creates a download service instance with dependency-injected components.
func NewService(
	cfg *config.Config,
	client ncm.Client,
	urlProcessor URLProcessor,
	assembler TrackAssembler,
) Service {
	return &ServiceImpl{
		cfg:          cfg,
		client:       client,
		urlProcessor: urlProcessor,
		assembler:    assembler,
		stats:        new(DownloadStatistics),
		statsMutex:   new(sync.Mutex),
	}
}

// DownloadItems implements Service.
func (s *ServiceImpl) DownloadItems(ctx context.Context, args []string, defaultKind TrackKind) {
	s.statsMutex.Lock()
	s.stats.StartTime = time.Now()
	s.statsMutex.Unlock()

	defer func() {
		s.statsMutex.Lock()
		s.stats.EndTime = time.Now()
		s.statsMutex.Unlock()
	}()

	if err := os.MkdirAll(s.cfg.OutputPath, constants.DefaultFolderPermissions); err != nil {
		logger.Errorf(ctx, "Failed to create output path: %v", err)

		return
	}

	items, err := s.urlProcessor.ExtractDownloadItems(ctx, args, defaultKind)
	if err != nil {
		logger.Errorf(ctx, "Failed to extract items to download: %v", err)

		return
	}

	if len(items) == 0 {
		logger.Warn(ctx, "Nothing to download")

		return
	}

	records := s.fetchTrackRecords(ctx, items)

	logger.Infof(ctx, "Starting download of %d track(s)", len(records))

	s.runPipelines(ctx, records)

	logger.Info(ctx, "Download process completed")
}

// runPipelines assembles records in parallel up to the configured limit.
// Cancellation stops scheduling; started pipelines run to their end.
func (s *ServiceImpl) runPipelines(ctx context.Context, records []*TrackRecord) {
	var group errgroup.Group

	group.SetLimit(int(max(s.cfg.MaxConcurrentDownloads, 1)))

	for _, record := range records {
		if ctx.Err() != nil {
			break
		}

		group.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			s.assembleTrack(ctx, record)

			return nil
		})
	}

	_ = group.Wait()
}

func (s *ServiceImpl) assembleTrack(ctx context.Context, record *TrackRecord) {
	outcome := s.assembler.Assemble(ctx, record)

	switch outcome.State {
	case TrackStateDone:
		logger.Infof(ctx, "Saved %s to '%s'", record, outcome.AudioPath)
		s.incrementTrackDownloaded(outcome)
	case TrackStateSkippedAlreadyDownloaded:
		s.incrementTrackSkipped()
	case TrackStateUnavailableDueToRights:
		s.incrementTrackUnavailable()
		s.recordError(newTrackErrorContext(record, TrackStateResolveURL), ErrResolutionUnavailable)
	case TrackStateFailed:
		// A metadata failure still leaves a downloaded file behind.
		if outcome.FailedIn == TrackStateWriteMetadata {
			s.addTransferStatistics(outcome)
		}

		s.incrementTrackFailed()
		s.recordError(newTrackErrorContext(record, outcome.FailedIn), outcome.Reason)
	default:
		logger.Errorf(ctx, "%s stopped in non-terminal state %s", record, outcome.State)
	}
}

// fetchTrackRecords looks the items up in the catalog, keeping the argument order.
func (s *ServiceImpl) fetchTrackRecords(ctx context.Context, items []*DownloadItem) []*TrackRecord {
	var songIDs []int64

	for _, item := range items {
		if item.Kind == TrackKindSong {
			songIDs = append(songIDs, item.ItemID)
		}
	}

	songs := s.fetchSongs(ctx, songIDs)
	records := make([]*TrackRecord, 0, len(items))

	for _, item := range items {
		switch item.Kind {
		case TrackKindSong:
			song, ok := songs[item.ItemID]
			if !ok {
				logger.Errorf(ctx, "Song %d not found", item.ItemID)
				s.recordError(newItemErrorContext(item), ErrTrackNotFound)

				continue
			}

			records = append(records, songToTrackRecord(song))
		case TrackKindEpisode:
			program, err := s.client.GetProgramDetail(ctx, item.ItemID)
			if err != nil {
				logger.Errorf(ctx, "Failed to get program %d: %v", item.ItemID, err)
				s.recordError(newItemErrorContext(item), err)

				continue
			}

			records = append(records, programToTrackRecord(program))
		case TrackKindUnknown:
			logger.Warnf(ctx, "Unknown item kind: %s", item)
		}
	}

	return records
}

func (s *ServiceImpl) fetchSongs(ctx context.Context, songIDs []int64) map[int64]*ncm.Song {
	result := make(map[int64]*ncm.Song, len(songIDs))

	for start := 0; start < len(songIDs); start += songsDetailBatchSize {
		batch := songIDs[start:min(start+songsDetailBatchSize, len(songIDs))]

		songs, err := s.client.GetSongsDetail(ctx, batch)
		if err != nil {
			logger.Errorf(ctx, "Failed to get song details: %v", err)

			continue
		}

		for id, song := range songs {
			result[id] = song
		}
	}

	return result
}

// Statistics implements Service.
func (s *ServiceImpl) Statistics() DownloadStatistics {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	stats := *s.stats
	stats.Errors = append([]DownloadError(nil), s.stats.Errors...)

	return stats
}

func newTrackErrorContext(record *TrackRecord, phase TrackState) *ErrorContext {
	return &ErrorContext{
		Kind:      record.Kind,
		ItemID:    strconv.FormatInt(record.ID, 10),
		ItemTitle: record.Name,
		Phase:     phase.String(),
	}
}

func newItemErrorContext(item *DownloadItem) *ErrorContext {
	return &ErrorContext{
		Kind:      item.Kind,
		ItemID:    strconv.FormatInt(item.ItemID, 10),
		ItemTitle: item.URL,
		Phase:     "fetching metadata",
	}
}
