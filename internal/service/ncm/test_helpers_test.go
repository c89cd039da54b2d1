package ncm

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testMPEGFrameHeader is an MPEG-1 Layer III, 128 kbit/s, 44.1 kHz header without padding.
//
//nolint:gochecknoglobals // Test fixture.
var testMPEGFrameHeader = []byte{0xFF, 0xFB, 0x90, 0x00}

// testMPEGFrameSize is the frame length implied by testMPEGFrameHeader.
const testMPEGFrameSize = 417

// syntheticMPEGFrames returns count silent frames.
func syntheticMPEGFrames(count int) []byte {
	frame := make([]byte, testMPEGFrameSize)
	copy(frame, testMPEGFrameHeader)

	return bytes.Repeat(frame, count)
}

// writeTestFile writes content to name inside dir and returns the path.
func writeTestFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	return path
}

// writeSyntheticMP3 writes an untagged stream of frameCount frames.
func writeSyntheticMP3(t *testing.T, dir string, frameCount int) string {
	t.Helper()

	return writeTestFile(t, dir, "song.mp3", syntheticMPEGFrames(frameCount))
}

// writeMinimalFLAC writes a stream with a STREAMINFO block only, followed by fake frame bytes.
func writeMinimalFLAC(t *testing.T, dir string) string {
	t.Helper()

	var buf bytes.Buffer

	buf.WriteString("fLaC")
	// Last-block flag set, type 0 (STREAMINFO), 34 bytes long.
	buf.Write([]byte{0x80, 0x00, 0x00, 0x22})

	streamInfo := make([]byte, 34)
	// Min and max block size of 4096.
	streamInfo[0], streamInfo[1], streamInfo[2], streamInfo[3] = 0x10, 0x00, 0x10, 0x00
	// 44100 Hz, 2 channels, 16 bits per sample.
	streamInfo[10], streamInfo[11], streamInfo[12] = 0x0A, 0xC4, 0x42
	streamInfo[13] = 0xF0
	buf.Write(streamInfo)

	buf.Write([]byte{0xFF, 0xF8, 0x69, 0x08, 0x00, 0x00})

	return writeTestFile(t, dir, "song.flac", buf.Bytes())
}

// testImage returns a gradient image of the given size.
func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255}) //nolint:gosec // Bounded by modulo.
		}
	}

	return img
}

// encodeTestJPEG returns a JPEG of the given size.
func encodeTestJPEG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(width, height), nil))

	return buf.Bytes()
}

// encodeTestPNG returns a PNG of the given size.
func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(width, height)))

	return buf.Bytes()
}

// newTestSongRecord returns a song that is number 3 of 12 on its album.
func newTestSongRecord() *TrackRecord {
	return &TrackRecord{
		ID:   186016,
		Name: "晴天",
		Kind: TrackKindSong,
		Song: &SongFields{
			Artist:    "周杰伦",
			Album:     "叶惠美",
			Number:    3,
			AlbumSize: 12,
		},
		CoverURL:         "http://example.com/blur.jpg",
		FallbackCoverURL: "http://example.com/pic.jpg",
		StreamID:         186016,
	}
}

// newTestEpisodeRecord returns a program episode whose audio is song 1367665.
func newTestEpisodeRecord() *TrackRecord {
	return &TrackRecord{
		ID:   907074561,
		Name: "Morning Show #12",
		Kind: TrackKindEpisode,
		Episode: &EpisodeFields{
			Host:  "DJ Lin",
			Brand: "Radio Daybreak",
		},
		CoverURL: "http://example.com/episode.jpg",
		StreamID: 1367665,
	}
}
