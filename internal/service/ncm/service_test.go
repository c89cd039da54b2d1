package ncm

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/oshokin/ncm-grabber/internal/client/ncm"
	mock_ncm "github.com/oshokin/ncm-grabber/internal/client/ncm/mocks"
	"github.com/oshokin/ncm-grabber/internal/config"
)

// fakeAssembler returns canned outcomes by record ID and tracks parallelism.
type fakeAssembler struct {
	mu        sync.Mutex
	outcomes  map[int64]*TrackOutcome
	assembled []int64
	delay     time.Duration
	running   atomic.Int64
	peak      atomic.Int64
}

func (f *fakeAssembler) Assemble(_ context.Context, record *TrackRecord) *TrackOutcome {
	current := f.running.Add(1)
	defer f.running.Add(-1)

	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	time.Sleep(f.delay)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.assembled = append(f.assembled, record.ID)

	if outcome, ok := f.outcomes[record.ID]; ok {
		return outcome
	}

	return &TrackOutcome{State: TrackStateDone}
}

func newTestService(t *testing.T, client ncm.Client, assembler TrackAssembler, concurrency int64) Service {
	t.Helper()

	cfg := &config.Config{
		OutputPath:             filepath.Join(t.TempDir(), "downloads"),
		MaxConcurrentDownloads: concurrency,
	}

	t.Cleanup(func() {
		assert.DirExists(t, cfg.OutputPath)
	})

	return NewService(cfg, client, NewURLProcessor(), assembler)
}

func testSong(id int64, name string) *ncm.Song {
	return &ncm.Song{
		ID:      id,
		Name:    name,
		Artists: []*ncm.Artist{{Name: "Artist"}},
		Album:   &ncm.Album{Name: "Album", Size: 10},
		No:      1,
	}
}

// TestService_DownloadItems tests outcome accounting across every terminal state.
func TestService_DownloadItems(t *testing.T) {
	t.Parallel()

	client := mock_ncm.NewMockClient(gomock.NewController(t))
	client.EXPECT().
		GetSongsDetail(gomock.Any(), []int64{1, 2, 3, 4, 5}).
		Return(map[int64]*ncm.Song{
			1: testSong(1, "Done"),
			2: testSong(2, "Skipped"),
			3: testSong(3, "Unavailable"),
			4: testSong(4, "Broken tags"),
		}, nil)
	client.EXPECT().
		GetProgramDetail(gomock.Any(), int64(907074561)).
		Return(&ncm.Program{ID: 907074561, Name: "Morning Show #12", MainSong: &ncm.Song{ID: 1367665}}, nil)

	assembler := &fakeAssembler{outcomes: map[int64]*TrackOutcome{
		1: {State: TrackStateDone, BytesDownloaded: 1000, CoverDownloaded: true, LyricDownloaded: true},
		2: {State: TrackStateSkippedAlreadyDownloaded},
		3: {State: TrackStateUnavailableDueToRights, Reason: ErrResolutionUnavailable},
		4: {
			State:           TrackStateFailed,
			FailedIn:        TrackStateWriteMetadata,
			Reason:          ErrMalformedContainer,
			BytesDownloaded: 500,
			CoverDownloaded: true,
		},
	}}

	service := newTestService(t, client, assembler, 2)
	args := []string{"1", "2", "3", "4", "5", "https://music.163.com/#/program?id=907074561"}

	service.DownloadItems(context.Background(), args, TrackKindSong)

	stats := service.Statistics()

	assert.Equal(t, int64(5), stats.TotalTracksProcessed)
	assert.Equal(t, int64(2), stats.TracksDownloaded)
	assert.Equal(t, int64(1), stats.TracksSkipped)
	assert.Equal(t, int64(1), stats.TracksUnavailable)
	assert.Equal(t, int64(1), stats.TracksFailed)
	assert.Equal(t, int64(1500), stats.TotalBytesDownloaded)
	assert.Equal(t, int64(2), stats.CoversDownloaded)
	assert.Equal(t, int64(1), stats.LyricsDownloaded)
	assert.False(t, stats.StartTime.IsZero())
	assert.False(t, stats.EndTime.Before(stats.StartTime))

	require.Len(t, stats.Errors, 3)

	byID := make(map[string]DownloadError, len(stats.Errors))
	for _, downloadErr := range stats.Errors {
		byID[downloadErr.ItemID] = downloadErr
	}

	assert.Equal(t, ErrTrackNotFound.Error(), byID["5"].ErrorMessage)
	assert.Equal(t, "fetching metadata", byID["5"].Phase)
	assert.Equal(t, ErrResolutionUnavailable.Error(), byID["3"].ErrorMessage)
	assert.Equal(t, TrackStateWriteMetadata.String(), byID["4"].Phase)
	assert.Equal(t, "Broken tags", byID["4"].ItemTitle)

	assert.ElementsMatch(t, []int64{1, 2, 3, 4, 907074561}, assembler.assembled)

	service.PrintDownloadSummary(context.Background())
}

// TestService_DownloadItems_ConcurrencyLimit tests that no more pipelines run than configured.
func TestService_DownloadItems_ConcurrencyLimit(t *testing.T) {
	t.Parallel()

	const (
		songCount   = 12
		concurrency = 3
	)

	songs := make(map[int64]*ncm.Song, songCount)
	args := make([]string, 0, songCount)

	for id := int64(1); id <= songCount; id++ {
		songs[id] = testSong(id, "Song")
		args = append(args, ncmID(id))
	}

	client := mock_ncm.NewMockClient(gomock.NewController(t))
	client.EXPECT().GetSongsDetail(gomock.Any(), gomock.Len(songCount)).Return(songs, nil)

	assembler := &fakeAssembler{delay: 20 * time.Millisecond}
	service := newTestService(t, client, assembler, concurrency)

	service.DownloadItems(context.Background(), args, TrackKindSong)

	assert.Len(t, assembler.assembled, songCount)
	assert.LessOrEqual(t, assembler.peak.Load(), int64(concurrency))
	assert.Equal(t, int64(songCount), service.Statistics().TracksDownloaded)
}

// TestService_DownloadItems_Batching tests that song details are requested in bounded batches.
func TestService_DownloadItems_Batching(t *testing.T) {
	t.Parallel()

	const songCount = songsDetailBatchSize + 5

	args := make([]string, 0, songCount)
	for id := int64(1); id <= songCount; id++ {
		args = append(args, ncmID(id))
	}

	client := mock_ncm.NewMockClient(gomock.NewController(t))
	client.EXPECT().
		GetSongsDetail(gomock.Any(), gomock.Len(songsDetailBatchSize)).
		DoAndReturn(func(_ context.Context, ids []int64) (map[int64]*ncm.Song, error) {
			result := make(map[int64]*ncm.Song, len(ids))
			for _, id := range ids {
				result[id] = testSong(id, "Song")
			}

			return result, nil
		})
	client.EXPECT().
		GetSongsDetail(gomock.Any(), gomock.Len(5)).
		Return(nil, ncm.ErrUnexpectedAPICode)

	assembler := &fakeAssembler{}
	service := newTestService(t, client, assembler, 4)

	service.DownloadItems(context.Background(), args, TrackKindSong)

	stats := service.Statistics()
	assert.Equal(t, int64(songsDetailBatchSize), stats.TracksDownloaded)
	assert.Len(t, stats.Errors, 5)
}

// TestService_DownloadItems_Canceled tests that a canceled session schedules nothing.
func TestService_DownloadItems_Canceled(t *testing.T) {
	t.Parallel()

	client := mock_ncm.NewMockClient(gomock.NewController(t))
	client.EXPECT().
		GetSongsDetail(gomock.Any(), gomock.Any()).
		Return(map[int64]*ncm.Song{1: testSong(1, "Song")}, nil).
		AnyTimes()

	assembler := &fakeAssembler{}
	service := newTestService(t, client, assembler, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	service.DownloadItems(ctx, []string{"1"}, TrackKindSong)

	assert.Empty(t, assembler.assembled)
	assert.Zero(t, service.Statistics().TotalTracksProcessed)

	service.PrintDownloadSummary(ctx)
}

// TestService_DownloadItems_NothingToDo tests unknown arguments.
func TestService_DownloadItems_NothingToDo(t *testing.T) {
	t.Parallel()

	client := mock_ncm.NewMockClient(gomock.NewController(t))
	assembler := &fakeAssembler{}
	service := newTestService(t, client, assembler, 1)

	service.DownloadItems(context.Background(), []string{"not an id"}, TrackKindSong)

	assert.Empty(t, assembler.assembled)
	assert.Empty(t, service.Statistics().Errors)
}

// TestService_ProgramNotFound tests that a failed program lookup is recorded.
func TestService_ProgramNotFound(t *testing.T) {
	t.Parallel()

	client := mock_ncm.NewMockClient(gomock.NewController(t))
	client.EXPECT().GetProgramDetail(gomock.Any(), int64(77)).Return(nil, ncm.ErrProgramNotFound)

	assembler := &fakeAssembler{}
	service := newTestService(t, client, assembler, 1)

	service.DownloadItems(context.Background(), []string{"77"}, TrackKindEpisode)

	stats := service.Statistics()
	require.Len(t, stats.Errors, 1)
	assert.Equal(t, TrackKindEpisode, stats.Errors[0].Kind)
	assert.Equal(t, ncm.ErrProgramNotFound.Error(), stats.Errors[0].ErrorMessage)
	assert.Empty(t, assembler.assembled)
}

func ncmID(id int64) string {
	return strconv.FormatInt(id, 10)
}
