package ncm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFormatDuration tests duration rendering.
func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{name: "milliseconds", duration: 250 * time.Millisecond, expected: "250ms"},
		{name: "seconds", duration: 42 * time.Second, expected: "42s"},
		{name: "minutes", duration: 3*time.Minute + 5*time.Second, expected: "3m 5s"},
		{name: "hours", duration: 2*time.Hour + 1*time.Minute + 9*time.Second, expected: "2h 1m 9s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}

func newStatisticsService() *ServiceImpl {
	service, _ := NewService(nil, nil, nil, nil).(*ServiceImpl)

	return service
}

// TestStatisticsCounters tests concurrent counter updates.
func TestStatisticsCounters(t *testing.T) {
	t.Parallel()

	service := newStatisticsService()
	require.NotNil(t, service)

	var wg sync.WaitGroup

	for range 50 {
		wg.Add(4)

		go func() {
			defer wg.Done()

			service.incrementTrackDownloaded(&TrackOutcome{BytesDownloaded: 10, CoverDownloaded: true})
		}()

		go func() {
			defer wg.Done()

			service.incrementTrackSkipped()
		}()

		go func() {
			defer wg.Done()

			service.incrementTrackUnavailable()
		}()

		go func() {
			defer wg.Done()

			service.incrementTrackFailed()
		}()
	}

	wg.Wait()

	stats := service.Statistics()
	assert.Equal(t, int64(200), stats.TotalTracksProcessed)
	assert.Equal(t, int64(50), stats.TracksDownloaded)
	assert.Equal(t, int64(50), stats.TracksSkipped)
	assert.Equal(t, int64(50), stats.TracksUnavailable)
	assert.Equal(t, int64(50), stats.TracksFailed)
	assert.Equal(t, int64(500), stats.TotalBytesDownloaded)
	assert.Equal(t, int64(50), stats.CoversDownloaded)
	assert.Zero(t, stats.LyricsDownloaded)
}

// TestRecordError tests that cancellations are not reported as errors.
func TestRecordError(t *testing.T) {
	t.Parallel()

	service := newStatisticsService()
	errCtx := newTrackErrorContext(newTestSongRecord(), TrackStateDownloadAudio)

	service.recordError(errCtx, context.Canceled)
	service.recordError(errCtx, nil)
	service.recordError(nil, errors.New("ignored"))
	service.recordError(errCtx, ErrIncompleteDownload)

	stats := service.Statistics()
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, DownloadError{
		Kind:         TrackKindSong,
		ItemID:       "186016",
		ItemTitle:    "晴天",
		ErrorMessage: ErrIncompleteDownload.Error(),
		Phase:        "downloading audio",
	}, stats.Errors[0])

	// Statistics returns a copy.
	stats.Errors[0].ItemTitle = "changed"
	assert.Equal(t, "晴天", service.Statistics().Errors[0].ItemTitle)
}

// TestPrintDownloadSummary tests that every summary section renders without panicking.
func TestPrintDownloadSummary(t *testing.T) {
	t.Parallel()

	service := newStatisticsService()

	assert.NotPanics(t, func() {
		service.PrintDownloadSummary(context.Background())
	})

	service.stats.StartTime = time.Now().Add(-90 * time.Second)
	service.stats.EndTime = time.Now()
	service.incrementTrackDownloaded(&TrackOutcome{BytesDownloaded: 5 << 20, CoverDownloaded: true, LyricDownloaded: true})
	service.incrementTrackFailed()
	service.recordError(newTrackErrorContext(newTestEpisodeRecord(), TrackStateWriteMetadata), ErrMalformedContainer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		service.PrintDownloadSummary(context.Background())
		service.PrintDownloadSummary(ctx)
	})
}
