package ncm

//go:generate $MOCKGEN -source=cover.go -destination=mocks/cover_mock.go

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Covers are occasionally served as PNG.
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nfnt/resize"

	"github.com/oshokin/ncm-grabber/internal/constants"
	"github.com/oshokin/ncm-grabber/internal/logger"
)

// CoverResizer shrinks a downloaded cover in place.
type CoverResizer interface {
	// Resize rewrites the image at path as a JPEG no larger than the configured box.
	// It returns false when the image already fits and was left untouched.
	Resize(ctx context.Context, path string) (bool, error)
}

// CoverResizerImpl implements CoverResizer with Lanczos resampling.
type CoverResizerImpl struct {
	maxSize uint
	quality int
}

// ErrCoverUndecodable indicates a cover file that is not a supported image.
var ErrCoverUndecodable = errors.New("cover image cannot be decoded")

const (
	// DefaultCoverMaxSize is the default bounding box side in pixels.
	DefaultCoverMaxSize = 640
	// DefaultCoverQuality is the default JPEG quality of a resized cover.
	DefaultCoverQuality = 90
	// maxCoverQuality is the highest JPEG quality.
	maxCoverQuality = 100
)

// NewCoverResizer creates a resizer that fits covers into a maxSize square box.
func NewCoverResizer(maxSize uint, quality int) CoverResizer {
	if maxSize == 0 {
		maxSize = DefaultCoverMaxSize
	}

	if quality <= 0 || quality > maxCoverQuality {
		quality = DefaultCoverQuality
	}

	return &CoverResizerImpl{maxSize: maxSize, quality: quality}
}

// Resize implements CoverResizer.
func (r *CoverResizerImpl) Resize(ctx context.Context, path string) (bool, error) {
	img, err := decodeImageFile(path)
	if err != nil {
		return false, err
	}

	bounds := img.Bounds()

	//nolint:gosec // Image dimensions are never negative.
	if uint(bounds.Dx()) <= r.maxSize && uint(bounds.Dy()) <= r.maxSize {
		return false, nil
	}

	thumbnail := resize.Thumbnail(r.maxSize, r.maxSize, img, resize.Lanczos3)

	logger.Debugf(ctx, "Resizing cover '%s' from %dx%d to %dx%d",
		path, bounds.Dx(), bounds.Dy(), thumbnail.Bounds().Dx(), thumbnail.Bounds().Dy())

	if err = r.writeJPEG(path, thumbnail); err != nil {
		return false, fmt.Errorf("failed to save resized cover: %w", err)
	}

	return true, nil
}

// writeJPEG encodes img to a sibling temp file and renames it over path.
func (r *CoverResizerImpl) writeJPEG(path string, img image.Image) error {
	tempPath := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+constants.ExtensionJPG)

	file, err := os.OpenFile(tempPath, constants.OverwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return err
	}

	//nolint:exhaustruct // Only quality is configurable.
	err = jpeg.Encode(file, img, &jpeg.Options{Quality: r.quality})
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Rename(tempPath, path)
	}

	if err != nil {
		os.Remove(tempPath) //nolint:errcheck,gosec // Best-effort cleanup of the temp file.
	}

	return err
}

func decodeImageFile(path string) (image.Image, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCoverUndecodable, err)
	}

	return img, nil
}
