package ncm

import (
	"bytes"
	"io"
	"strconv"

	"github.com/oshokin/id3v2/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// languageCodeLength is the length of an ISO-639-2 code.
const languageCodeLength = 3

// Frames below are serialized here instead of by id3v2,
// whose UTF-16 writer appends a stray zero byte after every string.

// textFrame is a T*** frame holding a single string.
type textFrame struct {
	encoding id3v2.Encoding
	text     string
}

func newTextFrame(textEncoding id3v2.Encoding, text string) *textFrame {
	return &textFrame{encoding: textEncoding, text: text}
}

// UniqueIdentifier implements id3v2.Framer.
func (f *textFrame) UniqueIdentifier() string {
	return ""
}

// Size implements id3v2.Framer.
func (f *textFrame) Size() int {
	return len(f.body())
}

// WriteTo implements id3v2.Framer.
func (f *textFrame) WriteTo(w io.Writer) (int64, error) {
	return writeFrameBody(w, f.body())
}

func (f *textFrame) body() []byte {
	return append([]byte{f.encoding.Key}, encodeID3Text(f.encoding, f.text)...)
}

// unsynchronisedLyricsFrame is a USLT frame.
type unsynchronisedLyricsFrame struct {
	encoding   id3v2.Encoding
	language   string
	descriptor string
	lyrics     string
}

func newUnsynchronisedLyricsFrame(
	textEncoding id3v2.Encoding,
	language, descriptor, lyrics string,
) *unsynchronisedLyricsFrame {
	return &unsynchronisedLyricsFrame{
		encoding:   textEncoding,
		language:   language,
		descriptor: descriptor,
		lyrics:     lyrics,
	}
}

// UniqueIdentifier implements id3v2.Framer.
func (f *unsynchronisedLyricsFrame) UniqueIdentifier() string {
	return f.language + f.descriptor
}

// Size implements id3v2.Framer.
func (f *unsynchronisedLyricsFrame) Size() int {
	return len(f.body())
}

// WriteTo implements id3v2.Framer.
func (f *unsynchronisedLyricsFrame) WriteTo(w io.Writer) (int64, error) {
	return writeFrameBody(w, f.body())
}

func (f *unsynchronisedLyricsFrame) body() []byte {
	var buf bytes.Buffer

	buf.WriteByte(f.encoding.Key)
	buf.WriteString(normalizeLanguage(f.language))
	buf.Write(encodeID3Text(f.encoding, f.descriptor))
	buf.Write(f.encoding.TerminationBytes)
	buf.Write(encodeID3Text(f.encoding, f.lyrics))

	return buf.Bytes()
}

// attachedPictureFrame is an APIC frame.
type attachedPictureFrame struct {
	encoding    id3v2.Encoding
	mimeType    string
	pictureType byte
	description string
	picture     []byte
}

func newFrontCoverFrame(textEncoding id3v2.Encoding, mimeType string, picture []byte) *attachedPictureFrame {
	return &attachedPictureFrame{
		encoding:    textEncoding,
		mimeType:    mimeType,
		pictureType: id3v2.PTFrontCover,
		picture:     picture,
	}
}

// UniqueIdentifier implements id3v2.Framer.
func (f *attachedPictureFrame) UniqueIdentifier() string {
	return strconv.Itoa(int(f.pictureType)) + f.description
}

// Size implements id3v2.Framer.
func (f *attachedPictureFrame) Size() int {
	return len(f.body())
}

// WriteTo implements id3v2.Framer.
func (f *attachedPictureFrame) WriteTo(w io.Writer) (int64, error) {
	return writeFrameBody(w, f.body())
}

func (f *attachedPictureFrame) body() []byte {
	var buf bytes.Buffer

	buf.WriteByte(f.encoding.Key)
	// MIME type is always Latin-1.
	buf.WriteString(f.mimeType)
	buf.WriteByte(0)
	buf.WriteByte(f.pictureType)
	buf.Write(encodeID3Text(f.encoding, f.description))
	buf.Write(f.encoding.TerminationBytes)
	buf.Write(f.picture)

	return buf.Bytes()
}

func writeFrameBody(w io.Writer, body []byte) (int64, error) {
	n, err := w.Write(body)

	return int64(n), err
}

// encodeID3Text converts s from UTF-8 into textEncoding.
// Characters the target encoding cannot represent are replaced.
func encodeID3Text(textEncoding id3v2.Encoding, s string) []byte {
	var encoder *encoding.Encoder

	switch textEncoding.Key {
	case id3v2.EncodingISO.Key:
		encoder = encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())
	case id3v2.EncodingUTF16.Key:
		encoder = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	case id3v2.EncodingUTF16BE.Key:
		encoder = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	default:
		return []byte(s)
	}

	encoded, err := encoder.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}

	return encoded
}

// normalizeLanguage pads or cuts a language code to three bytes.
func normalizeLanguage(language string) string {
	if len(language) >= languageCodeLength {
		return language[:languageCodeLength]
	}

	return language + string(bytes.Repeat([]byte{' '}, languageCodeLength-len(language)))
}
