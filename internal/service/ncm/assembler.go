package ncm

//go:generate $MOCKGEN -source=assembler.go -destination=mocks/assembler_mock.go

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/ncm-grabber/internal/client/ncm"
	"github.com/oshokin/ncm-grabber/internal/constants"
	"github.com/oshokin/ncm-grabber/internal/logger"
	"github.com/oshokin/ncm-grabber/internal/utils"
)

// TrackAssembler turns one catalog record into a tagged audio file.
type TrackAssembler interface {
	// Assemble runs the record through every state until a terminal one.
	Assemble(ctx context.Context, record *TrackRecord) *TrackOutcome
}

// AssemblerOptions are the per-session settings of the assembler.
type AssemblerOptions struct {
	// AudioLevel is the requested quality level.
	AudioLevel string
	// DownloadLyrics enables the lyric step.
	DownloadLyrics bool
}

// TrackAssemblerImpl implements TrackAssembler as an explicit state machine.
type TrackAssemblerImpl struct {
	client     ncm.Client
	downloader StreamingDownloader
	resizer    CoverResizer
	writer     MetadataWriter
	paths      *PathBuilder
	options    AssemblerOptions
}

// assembly is the mutable state of one track run. It is never shared between runs.
type assembly struct {
	record  *TrackRecord
	outcome *TrackOutcome
	// streamURL is the resolved audio location.
	streamURL string
	// coverPath is set once a cover is on disk.
	coverPath string
	// lyricPath is set once a lyric is on disk.
	lyricPath string
	// lyricText is the raw lyric passed to the writer.
	lyricText string
	// failure is the metadata error carried through cleanup.
	failure error
}

// stateHandler runs one state and returns the next one.
type stateHandler func(ctx context.Context, a *assembly) TrackState

// NewTrackAssembler creates a new TrackAssembler instance.
func NewTrackAssembler(
	client ncm.Client,
	downloader StreamingDownloader,
	resizer CoverResizer,
	writer MetadataWriter,
	paths *PathBuilder,
	options AssemblerOptions,
) TrackAssembler {
	return &TrackAssemblerImpl{
		client:     client,
		downloader: downloader,
		resizer:    resizer,
		writer:     writer,
		paths:      paths,
		options:    options,
	}
}

// Assemble implements TrackAssembler.
func (t *TrackAssemblerImpl) Assemble(ctx context.Context, record *TrackRecord) *TrackOutcome {
	handlers := map[TrackState]stateHandler{
		TrackStateResolveURL:    t.resolveURL,
		TrackStateDownloadAudio: t.downloadAudio,
		TrackStateDownloadCover: t.downloadCover,
		TrackStateResizeCover:   t.resizeCover,
		TrackStateDownloadLyric: t.downloadLyric,
		TrackStateWriteMetadata: t.writeMetadata,
		TrackStateCleanup:       t.cleanup,
	}

	a := &assembly{
		record:  record,
		outcome: &TrackOutcome{State: TrackStateResolveURL},
	}

	state := TrackStateResolveURL

	for !state.IsTerminal() {
		logger.Debugf(ctx, "%s: %s", record, state)

		state = handlers[state](ctx, a)
	}

	a.outcome.State = state

	return a.outcome
}

// fail records reason and moves to the failed state.
func (a *assembly) fail(in TrackState, reason error) TrackState {
	a.outcome.FailedIn = in
	a.outcome.Reason = reason

	return TrackStateFailed
}

func (t *TrackAssemblerImpl) resolveURL(ctx context.Context, a *assembly) TrackState {
	songURL, err := t.client.GetSongURL(ctx, a.record.StreamID, t.options.AudioLevel)
	if err != nil {
		return a.fail(TrackStateResolveURL, fmt.Errorf("failed to resolve stream URL: %w", err))
	}

	if songURL == nil || songURL.URL == "" {
		logger.Warnf(ctx, "%s is unavailable, skipping", a.record)

		a.outcome.Reason = ErrResolutionUnavailable

		return TrackStateUnavailableDueToRights
	}

	a.streamURL = songURL.URL
	a.outcome.AudioPath = t.paths.AudioPath(a.record, songURL.Type)

	return TrackStateDownloadAudio
}

func (t *TrackAssemblerImpl) downloadAudio(ctx context.Context, a *assembly) TrackState {
	logger.Infof(ctx, "Downloading %s to '%s'", a.record, a.outcome.AudioPath)

	isComplete, err := t.downloader.Fetch(ctx, &DownloadTarget{URL: a.streamURL, Path: a.outcome.AudioPath})
	if err != nil {
		return a.fail(TrackStateDownloadAudio, err)
	}

	if isComplete {
		logger.Infof(ctx, "File '%s' already exists, skipping", a.outcome.AudioPath)

		return TrackStateSkippedAlreadyDownloaded
	}

	if info, statErr := os.Stat(a.outcome.AudioPath); statErr == nil {
		a.outcome.BytesDownloaded = info.Size()
	}

	return TrackStateDownloadCover
}

func (t *TrackAssemblerImpl) downloadCover(ctx context.Context, a *assembly) TrackState {
	coverURL := a.record.PreferredCoverURL()
	if coverURL == "" {
		logger.Debugf(ctx, "%s has no cover", a.record)

		return TrackStateDownloadLyric
	}

	coverPath := t.paths.CoverPath(a.record)

	// A failed cover leaves the audio untagged by picture only.
	if _, err := t.downloader.Fetch(ctx, &DownloadTarget{URL: coverURL, Path: coverPath}); err != nil {
		logger.Warnf(ctx, "Failed to download cover of %s: %v", a.record, err)

		// Partial files are still removed during cleanup.
		a.coverPath = coverPath

		return TrackStateDownloadLyric
	}

	a.coverPath = coverPath
	a.outcome.CoverDownloaded = true

	return TrackStateResizeCover
}

func (t *TrackAssemblerImpl) resizeCover(ctx context.Context, a *assembly) TrackState {
	if _, err := t.resizer.Resize(ctx, a.coverPath); err != nil {
		logger.Warnf(ctx, "Failed to resize cover of %s: %v", a.record, err)

		// An undecodable image must not be embedded.
		if errors.Is(err, ErrCoverUndecodable) {
			a.outcome.CoverDownloaded = false
		}
	}

	return TrackStateDownloadLyric
}

func (t *TrackAssemblerImpl) downloadLyric(ctx context.Context, a *assembly) TrackState {
	if !t.options.DownloadLyrics {
		return TrackStateWriteMetadata
	}

	lyric, err := t.client.GetLyric(ctx, a.record.StreamID)
	if err != nil {
		logger.Warnf(ctx, "Failed to download lyric of %s: %v", a.record, err)

		return TrackStateWriteMetadata
	}

	if strings.TrimSpace(lyric) == "" {
		logger.Debugf(ctx, "%s has no lyric", a.record)

		return TrackStateWriteMetadata
	}

	lyricPath := t.paths.LyricPath(a.record)

	err = os.MkdirAll(filepath.Dir(lyricPath), constants.DefaultFolderPermissions)
	if err == nil {
		err = os.WriteFile(lyricPath, []byte(lyric), constants.DefaultFilePermissions)
	}

	if err != nil {
		logger.Warnf(ctx, "Failed to save lyric of %s: %v", a.record, err)
	} else {
		a.lyricPath = lyricPath
	}

	a.lyricText = lyric
	a.outcome.LyricDownloaded = true

	return TrackStateWriteMetadata
}

func (t *TrackAssemblerImpl) writeMetadata(ctx context.Context, a *assembly) TrackState {
	coverPath := ""
	if a.outcome.CoverDownloaded {
		coverPath = a.coverPath
	}

	err := t.writer.WriteMetadata(ctx, &WriteMetadataRequest{
		AudioPath: a.outcome.AudioPath,
		CoverPath: coverPath,
		LyricText: a.lyricText,
		Record:    a.record,
	})
	if err != nil {
		logger.Errorf(ctx, "Failed to write metadata of %s, the audio is kept: %v", a.record, err)

		a.failure = err
	}

	return TrackStateCleanup
}

func (t *TrackAssemblerImpl) cleanup(ctx context.Context, a *assembly) TrackState {
	for _, path := range []string{a.coverPath, a.lyricPath} {
		if err := utils.RemoveIfExists(path); err != nil {
			logger.Warnf(ctx, "Failed to remove temporary file '%s': %v", path, err)
		}
	}

	if a.failure != nil {
		return a.fail(TrackStateWriteMetadata, a.failure)
	}

	return TrackStateDone
}
