package ncm

import (
	"context"
	"errors"
)

// Common errors for the service layer.
var (
	// ErrResolutionUnavailable indicates that the catalog returned no playable URL.
	ErrResolutionUnavailable = errors.New("no playable URL, track is unavailable")
	// ErrTransferIO indicates a network, status or write failure during a transfer.
	ErrTransferIO = errors.New("transfer failed")
	// ErrIncompleteDownload indicates that the body ended before the declared length.
	ErrIncompleteDownload = errors.New("incomplete download")
	// ErrMissingContentLength indicates a response without a positive declared length.
	ErrMissingContentLength = errors.New("missing or non-positive content length")
	// ErrMalformedContainer indicates that the audio file is not a valid container.
	ErrMalformedContainer = errors.New("malformed audio container")
	// ErrTagSectionCreationFailed indicates that an empty tag section could not be added.
	ErrTagSectionCreationFailed = errors.New("failed to create tag section")
	// ErrLyricLineUnparseable indicates a lyric line whose timestamp cannot be extracted.
	ErrLyricLineUnparseable = errors.New("lyric line is unparseable")
	// ErrInvalidProgressTotal indicates a progress tracker built with a non-positive total.
	ErrInvalidProgressTotal = errors.New("progress total must be positive")
	// ErrEmptyTrackPath indicates that the track file path is empty.
	ErrEmptyTrackPath = errors.New("track path cannot be empty")
	// ErrEmptyDestinationPath indicates a download target without a local path.
	ErrEmptyDestinationPath = errors.New("download destination cannot be empty")
	// ErrUnsupportedContainer indicates an audio extension the writer cannot tag.
	ErrUnsupportedContainer = errors.New("unsupported audio container")
	// ErrTrackNotFound indicates that the catalog returned no record for the ID.
	ErrTrackNotFound = errors.New("track not found")
)

// ErrorContext provides context information for download errors.
type ErrorContext struct {
	// Kind is the type of record that failed.
	Kind TrackKind
	// ItemID is the unique identifier of the item that failed.
	ItemID string
	// ItemTitle is the human-readable title of the item.
	ItemTitle string
	// Phase indicates when the error occurred (e.g., "fetching metadata", "downloading audio").
	Phase string
}

// recordError records an error in the statistics with proper context.
// Context cancellation errors are ignored as they are expected during graceful shutdown.
func (s *ServiceImpl) recordError(errCtx *ErrorContext, err error) {
	if errCtx == nil || err == nil {
		return
	}

	// Don't record context cancellation as an error - it's expected when user presses CTRL+C.
	if errors.Is(err, context.Canceled) {
		return
	}

	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.stats.Errors = append(s.stats.Errors, DownloadError{
		Kind:         errCtx.Kind,
		ItemID:       errCtx.ItemID,
		ItemTitle:    errCtx.ItemTitle,
		ErrorMessage: err.Error(),
		Phase:        errCtx.Phase,
	})
}
