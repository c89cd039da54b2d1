package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
	"github.com/dustin/go-humanize"

	"github.com/oshokin/ncm-grabber/internal/logger"
)

// ErrNoTags indicates that the file carries no readable tag section.
var ErrNoTags = errors.New("no tags found")

// ExecuteInspectCommand prints the tags of every file in paths.
// A file that cannot be read is reported and the rest are still inspected.
func ExecuteInspectCommand(ctx context.Context, paths []string) {
	for _, path := range paths {
		if err := InspectFile(path, os.Stdout); err != nil {
			logger.Errorf(ctx, "Failed to inspect '%s': %v", path, err)
		}
	}
}

// InspectFile reads the tags of the audio file at path and writes them to out.
func InspectFile(path string, out io.Writer) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer file.Close() //nolint:errcheck // Read-only file.

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return ErrNoTags
		}

		return fmt.Errorf("failed to read tags: %w", err)
	}

	number, total := metadata.Track()

	fields := []struct {
		name  string
		value string
	}{
		{"File", path},
		{"Format", fmt.Sprintf("%s (%s)", metadata.Format(), metadata.FileType())},
		{"Title", metadata.Title()},
		{"Artist", metadata.Artist()},
		{"Album", metadata.Album()},
		{"Track", formatTrack(number, total)},
		{"Cover", formatPicture(metadata.Picture())},
		{"Lyrics", formatLyrics(metadata.Lyrics())},
	}

	for _, field := range fields {
		if _, err = fmt.Fprintf(out, "%-8s %s\n", field.name+":", field.value); err != nil {
			return err
		}
	}

	return nil
}

func formatTrack(number, total int) string {
	switch {
	case number == 0:
		return "-"
	case total == 0:
		return fmt.Sprintf("%d", number)
	default:
		return fmt.Sprintf("%d/%d", number, total)
	}
}

func formatPicture(picture *tag.Picture) string {
	if picture == nil {
		return "-"
	}

	return fmt.Sprintf("%s, %s", picture.MIMEType, humanize.Bytes(uint64(len(picture.Data))))
}

func formatLyrics(lyrics string) string {
	if lyrics == "" {
		return "-"
	}

	return fmt.Sprintf("%d characters", len([]rune(lyrics)))
}
