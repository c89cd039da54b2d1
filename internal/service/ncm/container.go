package ncm

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/oshokin/ncm-grabber/internal/constants"
)

const (
	// id3HeaderSize is the size of an ID3v2 header.
	id3HeaderSize = 10
	// id3FooterFlag marks a tag with a trailing 10-byte footer.
	id3FooterFlag = 0x10
	// mpegHeaderSize is the size of an MPEG audio frame header.
	mpegHeaderSize = 4
	// mpegSyncSearchWindow is how far past the tag a first frame is searched for.
	mpegSyncSearchWindow = 64 * 1024
	// mpegMaxFrameSize bounds any MPEG 1/2/2.5 frame.
	mpegMaxFrameSize = 4096
)

// emptyID3v23Header is a version 2.3 tag header with no flags and no frames.
//
//nolint:gochecknoglobals // Immutable byte pattern.
var emptyID3v23Header = []byte{'I', 'D', '3', 3, 0, 0, 0, 0, 0, 0}

// MPEG version indices as encoded in the header.
const (
	mpegVersion25 = 0
	mpegVersion2  = 2
	mpegVersion1  = 3
)

// MPEG layer indices as encoded in the header.
const (
	mpegLayer3 = 1
	mpegLayer2 = 2
	mpegLayer1 = 3
)

// Bitrates in kbit/s indexed by the header's bitrate index.
//
//nolint:gochecknoglobals // Immutable lookup tables.
var (
	bitratesV1L1 = [16]int{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0}
	bitratesV1L2 = [16]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0}
	bitratesV1L3 = [16]int{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0}
	bitratesV2L1 = [16]int{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0}
	bitratesV2L3 = [16]int{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0}

	sampleRates = map[int][3]int{
		mpegVersion1:  {44100, 48000, 32000},
		mpegVersion2:  {22050, 24000, 16000},
		mpegVersion25: {11025, 12000, 8000},
	}
)

var (
	// errNoFrameSync indicates that no pair of consecutive frame headers was found.
	errNoFrameSync = errors.New("can't sync to MPEG frame")
	// errTruncatedID3 indicates a tag header claiming more bytes than the file has.
	errTruncatedID3 = errors.New("ID3 tag is larger than the file")
)

// mpegFrameLength returns the byte length of the frame whose header starts header,
// or 0 when the header is not a valid MPEG audio frame header.
func mpegFrameLength(header []byte) int {
	if len(header) < mpegHeaderSize || header[0] != 0xFF || header[1]&0xE0 != 0xE0 {
		return 0
	}

	version := int(header[1]>>3) & 0x03
	layer := int(header[1]>>1) & 0x03
	bitrateIndex := int(header[2] >> 4)
	sampleRateIndex := int(header[2]>>2) & 0x03
	padding := int(header[2]>>1) & 0x01

	if version == 1 || layer == 0 || sampleRateIndex == 3 {
		return 0
	}

	var bitrates [16]int

	switch {
	case version == mpegVersion1 && layer == mpegLayer1:
		bitrates = bitratesV1L1
	case version == mpegVersion1 && layer == mpegLayer2:
		bitrates = bitratesV1L2
	case version == mpegVersion1:
		bitrates = bitratesV1L3
	case layer == mpegLayer1:
		bitrates = bitratesV2L1
	default:
		bitrates = bitratesV2L3
	}

	bitrate := bitrates[bitrateIndex] * 1000
	if bitrate == 0 {
		return 0
	}

	sampleRate := sampleRates[version][sampleRateIndex]

	switch {
	case layer == mpegLayer1:
		return (12*bitrate/sampleRate + padding) * 4
	case layer == mpegLayer3 && version != mpegVersion1:
		return 72*bitrate/sampleRate + padding
	default:
		return 144*bitrate/sampleRate + padding
	}
}

// id3TagLength returns the full length of the ID3v2 tag at the start of header, or 0 if there is none.
func id3TagLength(header []byte) int64 {
	if len(header) < id3HeaderSize || !bytes.HasPrefix(header, []byte("ID3")) {
		return 0
	}

	size := int64(header[6]&0x7F)<<21 | int64(header[7]&0x7F)<<14 | int64(header[8]&0x7F)<<7 | int64(header[9]&0x7F)

	length := id3HeaderSize + size
	if header[5]&id3FooterFlag != 0 {
		length += id3HeaderSize
	}

	return length
}

// probeMPEGFile checks that the audio after any ID3v2 tag is an MPEG frame stream:
// two consecutive valid frame headers, or one valid frame that ends exactly at EOF.
func probeMPEGFile(path string) error {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := make([]byte, id3HeaderSize)

	n, err := io.ReadFull(file, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}

	start := id3TagLength(header[:n])
	if start > info.Size() {
		return errTruncatedID3
	}

	window := make([]byte, mpegSyncSearchWindow+mpegMaxFrameSize)

	n, err = file.ReadAt(window, start)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	window = window[:n]
	remaining := info.Size() - start

	for offset := 0; offset+mpegHeaderSize <= len(window) && offset < mpegSyncSearchWindow; offset++ {
		frameLength := mpegFrameLength(window[offset:])
		if frameLength == 0 {
			continue
		}

		next := offset + frameLength
		if int64(next) == remaining {
			return nil
		}

		if next+mpegHeaderSize <= len(window) && mpegFrameLength(window[next:]) > 0 {
			return nil
		}
	}

	return errNoFrameSync
}

// hasID3Header reports whether the file starts with an ID3v2 tag.
func hasID3Header(path string) (bool, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return false, err
	}

	defer file.Close()

	header := make([]byte, len("ID3"))
	if _, err = io.ReadFull(file, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}

		return false, err
	}

	return string(header) == "ID3", nil
}

// prependEmptyID3Header rewrites path with an empty ID3v2.3 tag in front.
// The new content is written to a sibling file that replaces the original by rename.
func prependEmptyID3Header(path string) error {
	source, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}

	defer source.Close()

	tempPath := filepath.Join(filepath.Dir(path), "."+uuid.NewString()+".tmp")

	target, err := os.OpenFile(tempPath, constants.OverwriteFileOptions, constants.DefaultFilePermissions)
	if err != nil {
		return err
	}

	if _, err = target.Write(emptyID3v23Header); err == nil {
		_, err = io.Copy(target, source)
	}

	if closeErr := target.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		os.Remove(tempPath) //nolint:errcheck,gosec // Best-effort cleanup of the temp file.

		return fmt.Errorf("failed to write tagged copy: %w", err)
	}

	source.Close() //nolint:errcheck,gosec // Must be closed before rename on Windows.

	if err = os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) //nolint:errcheck,gosec // Best-effort cleanup of the temp file.

		return fmt.Errorf("failed to replace audio file: %w", err)
	}

	return nil
}
