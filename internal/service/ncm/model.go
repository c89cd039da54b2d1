package ncm

import (
	"fmt"
	"time"
)

// TrackKind distinguishes catalog songs from program episodes.
type TrackKind uint8

const (
	// TrackKindUnknown - unknown kind.
	TrackKindUnknown TrackKind = iota
	// TrackKindSong - a catalog song with album information.
	TrackKindSong
	// TrackKindEpisode - a program episode hosted by a DJ.
	TrackKindEpisode
)

// String returns a human-readable representation of the TrackKind.
func (k TrackKind) String() string {
	switch k {
	case TrackKindUnknown:
		return "unknown"
	case TrackKindSong:
		return "song"
	case TrackKindEpisode:
		return "episode"
	default:
		return fmt.Sprintf("unknown: %d", k)
	}
}

// SongFields holds the data only songs carry.
type SongFields struct {
	// Artist is the primary artist name.
	Artist string
	// Album is the album title.
	Album string
	// Number is the position in the album.
	Number int64
	// AlbumSize is the number of songs in the album.
	AlbumSize int64
}

// EpisodeFields holds the data only program episodes carry.
type EpisodeFields struct {
	// Host is the DJ nickname.
	Host string
	// Brand is the radio station name.
	Brand string
}

// TrackRecord is a catalog record the pipeline works on. It is never modified by the pipeline.
// Exactly one of Song and Episode is set, matching Kind.
type TrackRecord struct {
	// ID is the catalog identifier of the song or program.
	ID int64
	// Name is the display title.
	Name string
	// Kind selects which of Song and Episode is populated.
	Kind TrackKind
	// Song is set for TrackKindSong.
	Song *SongFields
	// Episode is set for TrackKindEpisode.
	Episode *EpisodeFields
	// CoverURL is the preferred cover location.
	CoverURL string
	// FallbackCoverURL is used when CoverURL is empty.
	FallbackCoverURL string
	// StreamID is the ID passed to stream resolution.
	StreamID int64
}

// Artist returns the song artist or the episode host.
func (r *TrackRecord) Artist() string {
	switch {
	case r.Song != nil:
		return r.Song.Artist
	case r.Episode != nil:
		return r.Episode.Host
	default:
		return ""
	}
}

// Album returns the song album or the episode brand.
func (r *TrackRecord) Album() string {
	switch {
	case r.Song != nil:
		return r.Song.Album
	case r.Episode != nil:
		return r.Episode.Brand
	default:
		return ""
	}
}

// TrackNumber returns "<number>/<albumSize>" for songs and false for episodes.
func (r *TrackRecord) TrackNumber() (string, bool) {
	if r.Kind != TrackKindSong || r.Song == nil {
		return "", false
	}

	return fmt.Sprintf("%d/%d", r.Song.Number, r.Song.AlbumSize), true
}

// PreferredCoverURL returns the primary cover URL, falling back to the secondary one.
func (r *TrackRecord) PreferredCoverURL() string {
	if r.CoverURL != "" {
		return r.CoverURL
	}

	return r.FallbackCoverURL
}

// String returns a human-readable representation of the TrackRecord.
func (r *TrackRecord) String() string {
	return fmt.Sprintf("%s %d (%s)", r.Kind, r.ID, r.Name)
}

// DownloadTarget is a remote URL paired with where it is saved.
type DownloadTarget struct {
	// URL is the remote location.
	URL string
	// Path is the local destination.
	Path string
}

// TrackState is a state of the per-track assembler.
type TrackState uint8

const (
	// TrackStateResolveURL resolves a playable stream URL.
	TrackStateResolveURL TrackState = iota
	// TrackStateDownloadAudio streams the audio to disk.
	TrackStateDownloadAudio
	// TrackStateDownloadCover fetches the cover image.
	TrackStateDownloadCover
	// TrackStateResizeCover shrinks the cover image.
	TrackStateResizeCover
	// TrackStateDownloadLyric fetches the lyric text.
	TrackStateDownloadLyric
	// TrackStateWriteMetadata embeds the tags.
	TrackStateWriteMetadata
	// TrackStateCleanup removes temporary cover and lyric files.
	TrackStateCleanup
	// TrackStateDone is the terminal success state.
	TrackStateDone
	// TrackStateSkippedAlreadyDownloaded is terminal: the audio was already complete.
	TrackStateSkippedAlreadyDownloaded
	// TrackStateUnavailableDueToRights is terminal: no playable URL.
	TrackStateUnavailableDueToRights
	// TrackStateFailed is terminal: see TrackOutcome.Reason.
	TrackStateFailed
)

// String returns a human-readable representation of the TrackState.
func (s TrackState) String() string {
	switch s {
	case TrackStateResolveURL:
		return "resolving URL"
	case TrackStateDownloadAudio:
		return "downloading audio"
	case TrackStateDownloadCover:
		return "downloading cover"
	case TrackStateResizeCover:
		return "resizing cover"
	case TrackStateDownloadLyric:
		return "downloading lyric"
	case TrackStateWriteMetadata:
		return "writing metadata"
	case TrackStateCleanup:
		return "cleaning up"
	case TrackStateDone:
		return "done"
	case TrackStateSkippedAlreadyDownloaded:
		return "skipped, already downloaded"
	case TrackStateUnavailableDueToRights:
		return "unavailable due to rights"
	case TrackStateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown state: %d", s)
	}
}

// IsTerminal reports whether the assembler stops in this state.
func (s TrackState) IsTerminal() bool {
	return s >= TrackStateDone
}

// TrackOutcome is the result of assembling one track.
type TrackOutcome struct {
	// State is the terminal state reached.
	State TrackState
	// Reason is set for TrackStateFailed.
	Reason error
	// FailedIn is the state in which the failure happened.
	FailedIn TrackState
	// AudioPath is where the audio was written.
	AudioPath string
	// BytesDownloaded is the size of the fresh audio download.
	BytesDownloaded int64
	// CoverDownloaded reports whether a cover was fetched.
	CoverDownloaded bool
	// LyricDownloaded reports whether a non-blank lyric was fetched.
	LyricDownloaded bool
}

// DownloadItem is a single song or program ID requested by the user.
type DownloadItem struct {
	// Kind is the type of record.
	Kind TrackKind
	// URL is the original argument the item came from.
	URL string
	// ItemID is the catalog identifier.
	ItemID int64
}

// String returns a human-readable representation of the DownloadItem.
func (di DownloadItem) String() string {
	return fmt.Sprintf("kind: %v, ID: %d", di.Kind, di.ItemID)
}

// DownloadStatistics tracks metrics for a download session.
type DownloadStatistics struct {
	// StartTime is when the download session began.
	StartTime time.Time
	// EndTime is when the download session completed.
	EndTime time.Time
	// TotalTracksProcessed is the total number of tracks attempted.
	TotalTracksProcessed int64
	// TracksDownloaded is the number of tracks successfully downloaded.
	TracksDownloaded int64
	// TracksSkipped is the number of tracks skipped because they already exist.
	TracksSkipped int64
	// TracksUnavailable is the number of tracks without a playable URL.
	TracksUnavailable int64
	// TracksFailed is the number of tracks that failed to download or tag.
	TracksFailed int64
	// TotalBytesDownloaded is the total size of downloaded audio in bytes.
	TotalBytesDownloaded int64
	// LyricsDownloaded is the number of lyrics fetched.
	LyricsDownloaded int64
	// CoversDownloaded is the number of covers fetched.
	CoversDownloaded int64
	// Errors is a list of all errors encountered during the download process.
	Errors []DownloadError
}

// DownloadError represents a single error that occurred during download.
type DownloadError struct {
	// Kind is the type of record that failed.
	Kind TrackKind
	// ItemID is the unique identifier of the item that failed.
	ItemID string
	// ItemTitle is the human-readable title of the item.
	ItemTitle string
	// ErrorMessage is the error message.
	ErrorMessage string
	// Phase indicates when the error occurred.
	Phase string
}
