package ncm

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/oshokin/id3v2/v2"
)

const (
	// syltFrameID is the ID3v2 frame identifier of synchronized lyrics.
	syltFrameID = "SYLT"
	// syltAbsoluteMillis is the timestamp format of absolute milliseconds.
	syltAbsoluteMillis = 2
	// syltContentLyrics is the content type of lyrics.
	syltContentLyrics = 1
)

// synchronisedLyricsFrame is a SYLT frame whose offsets are taken verbatim from LyricLine.
type synchronisedLyricsFrame struct {
	encoding   id3v2.Encoding
	language   string
	descriptor string
	lines      []LyricLine
}

// newSynchronisedLyricsFrame builds a SYLT frame of absolute millisecond lyrics.
func newSynchronisedLyricsFrame(
	textEncoding id3v2.Encoding,
	language, descriptor string,
	lines []LyricLine,
) *synchronisedLyricsFrame {
	return &synchronisedLyricsFrame{
		encoding:   textEncoding,
		language:   language,
		descriptor: descriptor,
		lines:      lines,
	}
}

// UniqueIdentifier implements id3v2.Framer.
func (f *synchronisedLyricsFrame) UniqueIdentifier() string {
	return f.language + f.descriptor
}

// Size implements id3v2.Framer.
func (f *synchronisedLyricsFrame) Size() int {
	return len(f.body())
}

// WriteTo implements id3v2.Framer.
func (f *synchronisedLyricsFrame) WriteTo(w io.Writer) (int64, error) {
	return writeFrameBody(w, f.body())
}

func (f *synchronisedLyricsFrame) body() []byte {
	var buf bytes.Buffer

	buf.WriteByte(f.encoding.Key)
	buf.WriteString(normalizeLanguage(f.language))
	buf.WriteByte(syltAbsoluteMillis)
	buf.WriteByte(syltContentLyrics)

	buf.Write(encodeID3Text(f.encoding, f.descriptor))
	buf.Write(f.encoding.TerminationBytes)

	offset := make([]byte, 4) //nolint:mnd // 32-bit timestamp.

	for _, line := range f.lines {
		buf.Write(encodeID3Text(f.encoding, line.Text))
		buf.Write(f.encoding.TerminationBytes)

		binary.BigEndian.PutUint32(offset, line.OffsetMillis)
		buf.Write(offset)
	}

	return buf.Bytes()
}
