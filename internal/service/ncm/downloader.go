package ncm

//go:generate $MOCKGEN -source=downloader.go -destination=mocks/downloader_mock.go

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/oshokin/ncm-grabber/internal/constants"
	"github.com/oshokin/ncm-grabber/internal/logger"
	http_transport "github.com/oshokin/ncm-grabber/internal/transport/http"
)

// StreamingDownloader saves a remote resource to a local path.
type StreamingDownloader interface {
	// Fetch downloads target.URL to target.Path.
	// It returns true when an existing file was accepted as complete and nothing was written.
	Fetch(ctx context.Context, target *DownloadTarget) (bool, error)
}

// CompletenessPredicate decides whether a local file already holds the whole resource.
type CompletenessPredicate func(localSize, declaredSize int64) bool

// StreamingDownloaderImpl implements StreamingDownloader over plain HTTP GET.
type StreamingDownloaderImpl struct {
	// httpClient performs the requests; it has no overall timeout.
	httpClient *http.Client
	// limiter caps the transfer speed, nil for unlimited.
	limiter *rate.Limiter
	// isComplete decides whether an existing file can be kept.
	isComplete CompletenessPredicate
	// newTracker builds the progress tracker of each transfer.
	newTracker ProgressTrackerFactory
}

// DownloaderOption customizes a StreamingDownloaderImpl.
type DownloaderOption func(d *StreamingDownloaderImpl)

const (
	// downloadChunkSize is the size of a single read from the response body.
	downloadChunkSize = 1024

	acceptEncodingHeader = "Accept-Encoding"
	identityEncoding     = "identity"
)

// SizeAtLeastDeclared accepts a local file that is at least as large as the declared length.
// Only sizes are compared; content is not verified.
func SizeAtLeastDeclared(localSize, declaredSize int64) bool {
	return localSize >= declaredSize
}

// WithHTTPClient replaces the HTTP client used for transfers.
func WithHTTPClient(client *http.Client) DownloaderOption {
	return func(d *StreamingDownloaderImpl) {
		d.httpClient = client
	}
}

// WithCompletenessPredicate replaces the default size check.
func WithCompletenessPredicate(predicate CompletenessPredicate) DownloaderOption {
	return func(d *StreamingDownloaderImpl) {
		d.isComplete = predicate
	}
}

// WithSpeedLimit caps transfers to bytesPerSecond. Zero or less means unlimited.
func WithSpeedLimit(bytesPerSecond int64) DownloaderOption {
	return func(d *StreamingDownloaderImpl) {
		if bytesPerSecond <= 0 {
			d.limiter = nil

			return
		}

		burst := max(bytesPerSecond, downloadChunkSize)
		d.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), int(burst))
	}
}

// WithProgressTrackerFactory sets how progress is reported.
func WithProgressTrackerFactory(factory ProgressTrackerFactory) DownloaderOption {
	return func(d *StreamingDownloaderImpl) {
		d.newTracker = factory
	}
}

// newDownloadTransport returns a transport that never asks for compressed bodies.
// Transparent gzip hides Content-Length, which every transfer relies on.
func newDownloadTransport() http.RoundTripper {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}

	transport := base.Clone()
	transport.DisableCompression = true

	return transport
}

// NewStreamingDownloader creates a downloader with line progress on stdout and no speed limit.
func NewStreamingDownloader(options ...DownloaderOption) StreamingDownloader {
	d := &StreamingDownloaderImpl{
		httpClient: &http.Client{
			Transport: http_transport.NewTransport(newDownloadTransport(), http_transport.DefaultUserAgent),
		},
		isComplete: SizeAtLeastDeclared,
		newTracker: func(label string, total int64) (ProgressTracker, error) {
			return NewLineProgressTracker(label, total, os.Stdout)
		},
	}

	for _, option := range options {
		option(d)
	}

	return d
}

// Fetch downloads target.URL to target.Path.
// Once the request is issued, the transfer ignores cancellation of ctx and runs to completion or I/O error.
func (d *StreamingDownloaderImpl) Fetch(ctx context.Context, target *DownloadTarget) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if target == nil || target.Path == "" {
		return false, ErrEmptyDestinationPath
	}

	destinationPath := target.Path

	// Create the parent folder if it does not exist.
	err := os.MkdirAll(filepath.Dir(destinationPath), constants.DefaultFolderPermissions)
	if err != nil {
		return false, transferError(err)
	}

	transferCtx := context.WithoutCancel(ctx)

	request, err := http.NewRequestWithContext(transferCtx, http.MethodGet, target.URL, http.NoBody)
	if err != nil {
		return false, transferError(err)
	}

	request.Header.Set(acceptEncodingHeader, identityEncoding)

	response, err := d.httpClient.Do(request)
	if err != nil {
		return false, transferError(err)
	}

	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return false, fmt.Errorf("%w: unexpected HTTP status %d", ErrTransferIO, response.StatusCode)
	}

	declaredSize := response.ContentLength
	if declaredSize <= 0 {
		return false, transferError(ErrMissingContentLength)
	}

	// The request was still needed to learn the declared length.
	if info, statErr := os.Stat(destinationPath); statErr == nil && !info.IsDir() {
		if d.isComplete(info.Size(), declaredSize) {
			logger.Debugf(ctx, "File '%s' is already complete (%d >= %d bytes)", destinationPath, info.Size(), declaredSize)

			return true, nil
		}
	}

	tracker, err := d.newTracker(filepath.Base(destinationPath), declaredSize)
	if err != nil {
		return false, err
	}

	written, err := d.writeBody(transferCtx, response.Body, destinationPath, tracker)
	if err != nil {
		return false, transferError(err)
	}

	if written < declaredSize {
		return false, transferError(
			fmt.Errorf("%w: wrote %d bytes, expected %d bytes", ErrIncompleteDownload, written, declaredSize))
	}

	return false, nil
}

// writeBody truncates the destination and copies body into it chunk by chunk.
func (d *StreamingDownloaderImpl) writeBody(
	ctx context.Context,
	body io.Reader,
	destinationPath string,
	tracker ProgressTracker,
) (int64, error) {
	file, err := os.OpenFile(filepath.Clean(destinationPath), constants.OverwriteFileOptions,
		constants.DefaultFilePermissions)
	if err != nil {
		return 0, err
	}

	var (
		buffer  = make([]byte, downloadChunkSize)
		written int64
	)

	for {
		n, readErr := io.ReadFull(body, buffer)
		if n > 0 {
			if d.limiter != nil {
				if err = d.limiter.WaitN(ctx, n); err != nil {
					file.Close() //nolint:errcheck,gosec // The wait error is the one to report.

					return written, err
				}
			}

			if _, err = file.Write(buffer[:n]); err != nil {
				file.Close() //nolint:errcheck,gosec // The write error is the one to report.

				return written, err
			}

			written += int64(n)
			tracker.Advance(int64(n))
		}

		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}

		if readErr != nil {
			file.Close() //nolint:errcheck,gosec // The read error is the one to report.

			return written, readErr
		}
	}

	return written, file.Close()
}

// transferError marks err as a transfer failure, keeping the cause inspectable.
func transferError(err error) error {
	return fmt.Errorf("%w: %w", ErrTransferIO, err)
}
