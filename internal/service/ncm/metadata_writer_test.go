package ncm

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dhowden/tag"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/oshokin/id3v2/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLyric = "[00:12.340]Hello\n[00:15.000]World\n"

// openTestID3 parses every frame of the tag at path.
func openTestID3(t *testing.T, path string) *id3v2.Tag {
	t.Helper()

	//nolint:exhaustruct // ParseFrames omitted to parse every frame.
	id3Tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = id3Tag.Close() })

	return id3Tag
}

// readTestMetadata reads tags back with an independent reader.
func readTestMetadata(t *testing.T, path string) tag.Metadata {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	defer file.Close()

	metadata, err := tag.ReadFrom(file)
	require.NoError(t, err)

	return metadata
}

// TestWriteMetadata_MP3Song tests a full tag write on an untagged MPEG stream.
func TestWriteMetadata_MP3Song(t *testing.T) {
	t.Parallel()

	var (
		dir       = t.TempDir()
		audioPath = writeSyntheticMP3(t, dir, 4)
		cover     = encodeTestJPEG(t, 16, 16)
		coverPath = writeTestFile(t, dir, "cover_186016.jpg", cover)
		record    = newTestSongRecord()
	)

	writer := NewMetadataWriter(MetadataWriterConfig{TagVersion: 3, LyricsLanguage: "chi", CoverLegacyEncoding: true})

	err := writer.WriteMetadata(context.Background(), &WriteMetadataRequest{
		AudioPath: audioPath,
		CoverPath: coverPath,
		LyricText: testLyric,
		Record:    record,
	})
	require.NoError(t, err)

	id3Tag := openTestID3(t, audioPath)
	assert.Equal(t, byte(3), id3Tag.Version())
	assert.Equal(t, "周杰伦", id3Tag.Artist())
	assert.Equal(t, "晴天", id3Tag.Title())
	assert.Equal(t, "叶惠美", id3Tag.Album())
	assert.Equal(t, "3/12", id3Tag.GetTextFrame("TRCK").Text)

	pictures := id3Tag.GetFrames("APIC")
	require.Len(t, pictures, 1)

	picture, ok := pictures[0].(id3v2.PictureFrame)
	require.True(t, ok)
	assert.Equal(t, cover, picture.Picture)
	assert.Equal(t, "image/jpeg", picture.MimeType)
	assert.Equal(t, id3v2.EncodingISO.Key, picture.Encoding.Key)

	lyrics := id3Tag.GetFrames("USLT")
	require.Len(t, lyrics, 1)

	unsynced, ok := lyrics[0].(id3v2.UnsynchronisedLyricsFrame)
	require.True(t, ok)
	assert.Equal(t, "Hello\nWorld\n", unsynced.Lyrics)
	assert.Equal(t, "chi", unsynced.Language)
	assert.Equal(t, "Unsynchronised lyric", unsynced.ContentDescriptor)

	assert.Len(t, id3Tag.GetFrames("SYLT"), 1)

	metadata := readTestMetadata(t, audioPath)
	assert.Equal(t, "晴天", metadata.Title())
	assert.Equal(t, "周杰伦", metadata.Artist())
	assert.Equal(t, "叶惠美", metadata.Album())

	number, total := metadata.Track()
	assert.Equal(t, 3, number)
	assert.Equal(t, 12, total)
	assert.Equal(t, "Hello\nWorld\n", metadata.Lyrics())
	require.NotNil(t, metadata.Picture())
	assert.Equal(t, cover, metadata.Picture().Data)
	assert.Equal(t, "image/jpeg", metadata.Picture().MIMEType)

	// The audio frames are still intact after the tag.
	require.NoError(t, probeMPEGFile(audioPath))
}

// TestWriteMetadata_MP3IndependentReadBack tests that every written frame decodes with another ID3 reader.
func TestWriteMetadata_MP3IndependentReadBack(t *testing.T) {
	t.Parallel()

	asciiRecord := newTestSongRecord()
	asciiRecord.Name = "c"
	asciiRecord.Song.Artist = "c"
	asciiRecord.Song.Album = "Abc"

	tests := []struct {
		name       string
		tagVersion byte
		legacy     bool
		record     *TrackRecord
		withCover  bool
		lyric      string
	}{
		{name: "no cover and no lyric", tagVersion: 3, record: newTestSongRecord()},
		{name: "cover only", tagVersion: 3, legacy: true, record: newTestSongRecord(), withCover: true},
		{name: "lyric only", tagVersion: 3, record: newTestSongRecord(), lyric: testLyric},
		{name: "single ASCII line", tagVersion: 3, record: asciiRecord, lyric: "[00:01.00]c"},
		{
			name:       "UTF-16 cover description on v4",
			tagVersion: 4,
			record:     newTestSongRecord(),
			withCover:  true,
			lyric:      testLyric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				dir       = t.TempDir()
				audioPath = writeSyntheticMP3(t, dir, 2)
				cover     []byte
				coverPath string
			)

			if tt.withCover {
				cover = encodeTestJPEG(t, 4, 4)
				coverPath = writeTestFile(t, dir, "cover.jpg", cover)
			}

			writer := NewMetadataWriter(MetadataWriterConfig{
				TagVersion:          tt.tagVersion,
				LyricsLanguage:      "chi",
				CoverLegacyEncoding: tt.legacy,
			})

			require.NoError(t, writer.WriteMetadata(context.Background(), &WriteMetadataRequest{
				AudioPath: audioPath,
				CoverPath: coverPath,
				LyricText: tt.lyric,
				Record:    tt.record,
			}))

			metadata := readTestMetadata(t, audioPath)
			assert.Equal(t, tt.record.Name, metadata.Title())
			assert.Equal(t, tt.record.Artist(), metadata.Artist())
			assert.Equal(t, tt.record.Album(), metadata.Album())

			number, total := metadata.Track()
			assert.Equal(t, int(tt.record.Song.Number), number)
			assert.Equal(t, int(tt.record.Song.AlbumSize), total)

			if tt.lyric != "" {
				assert.Equal(t, ParseLyrics(tt.lyric).Unsynced, metadata.Lyrics())
			} else {
				assert.Empty(t, metadata.Lyrics())
			}

			if tt.withCover {
				require.NotNil(t, metadata.Picture())
				assert.Equal(t, cover, metadata.Picture().Data)
			} else {
				assert.Nil(t, metadata.Picture())
			}

			// The fork reads the same values back.
			id3Tag := openTestID3(t, audioPath)
			assert.Equal(t, tt.record.Name, id3Tag.Title())
			assert.Equal(t, tt.record.Artist(), id3Tag.Artist())
		})
	}
}

// TestWriteMetadata_MP3Episode tests that episodes get no track number.
func TestWriteMetadata_MP3Episode(t *testing.T) {
	t.Parallel()

	var (
		dir       = t.TempDir()
		audioPath = writeSyntheticMP3(t, dir, 2)
		writer    = NewMetadataWriter(MetadataWriterConfig{})
	)

	// A previous song write leaves a track number behind.
	require.NoError(t, writer.WriteMetadata(context.Background(), &WriteMetadataRequest{
		AudioPath: audioPath,
		Record:    newTestSongRecord(),
	}))
	assert.Len(t, openTestID3(t, audioPath).GetFrames("TRCK"), 1)

	require.NoError(t, writer.WriteMetadata(context.Background(), &WriteMetadataRequest{
		AudioPath: audioPath,
		Record:    newTestEpisodeRecord(),
	}))

	id3Tag := openTestID3(t, audioPath)
	assert.Equal(t, "DJ Lin", id3Tag.Artist())
	assert.Equal(t, "Morning Show #12", id3Tag.Title())
	assert.Equal(t, "Radio Daybreak", id3Tag.Album())
	assert.Empty(t, id3Tag.GetFrames("TRCK"))
	assert.Empty(t, id3Tag.GetFrames("APIC"))
	assert.Empty(t, id3Tag.GetFrames("USLT"))
	assert.Empty(t, id3Tag.GetFrames("SYLT"))
}

// TestWriteMetadata_ReplacesExistingPicture tests that an existing cover is replaced, not duplicated.
func TestWriteMetadata_ReplacesExistingPicture(t *testing.T) {
	t.Parallel()

	var (
		dir       = t.TempDir()
		audioPath = writeSyntheticMP3(t, dir, 3)
		newCover  = encodeTestJPEG(t, 8, 8)
		coverPath = writeTestFile(t, dir, "cover.jpg", newCover)
	)

	// Seed the file with a described picture.
	seeded := openTestID3(t, audioPath)
	seeded.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingISO,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "X",
		Picture:     []byte("old picture"),
	})
	require.NoError(t, seeded.Save())
	require.NoError(t, seeded.Close())

	writer := NewMetadataWriter(MetadataWriterConfig{TagVersion: 4})

	require.NoError(t, writer.WriteMetadata(context.Background(), &WriteMetadataRequest{
		AudioPath: audioPath,
		CoverPath: coverPath,
		Record:    newTestSongRecord(),
	}))

	id3Tag := openTestID3(t, audioPath)
	assert.Equal(t, byte(4), id3Tag.Version())

	pictures := id3Tag.GetFrames("APIC")
	require.Len(t, pictures, 1)

	picture, ok := pictures[0].(id3v2.PictureFrame)
	require.True(t, ok)
	assert.Equal(t, newCover, picture.Picture)
	assert.Equal(t, id3v2.EncodingUTF16.Key, picture.Encoding.Key)
}

// TestWriteMetadata_MissingCoverFile tests that an unreadable cover does not abort tagging.
func TestWriteMetadata_MissingCoverFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	audioPath := writeSyntheticMP3(t, dir, 2)

	err := NewMetadataWriter(MetadataWriterConfig{}).WriteMetadata(context.Background(), &WriteMetadataRequest{
		AudioPath: audioPath,
		CoverPath: filepath.Join(dir, "missing.jpg"),
		Record:    newTestSongRecord(),
	})
	require.NoError(t, err)

	id3Tag := openTestID3(t, audioPath)
	assert.Empty(t, id3Tag.GetFrames("APIC"))
	assert.Equal(t, "晴天", id3Tag.Title())
}

// TestWriteMetadata_Errors tests request validation and container errors.
func TestWriteMetadata_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		fileName      string
		content       []byte
		expectedError error
	}{
		{
			name:          "not an MPEG stream",
			fileName:      "song.mp3",
			content:       []byte("this is certainly not audio"),
			expectedError: ErrMalformedContainer,
		},
		{
			name:          "not a FLAC stream",
			fileName:      "song.flac",
			content:       []byte("RIFF....WAVE"),
			expectedError: ErrMalformedContainer,
		},
		{
			name:          "unsupported extension",
			fileName:      "song.ogg",
			content:       []byte("OggS"),
			expectedError: ErrUnsupportedContainer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeTestFile(t, t.TempDir(), tt.fileName, tt.content)

			err := NewMetadataWriter(MetadataWriterConfig{}).WriteMetadata(context.Background(),
				&WriteMetadataRequest{AudioPath: path, Record: newTestSongRecord()})
			require.ErrorIs(t, err, tt.expectedError)

			// The audio is left untouched.
			content, readErr := os.ReadFile(path)
			require.NoError(t, readErr)
			assert.Equal(t, tt.content, content)
		})
	}

	err := NewMetadataWriter(MetadataWriterConfig{}).WriteMetadata(context.Background(), &WriteMetadataRequest{})
	require.ErrorIs(t, err, ErrEmptyTrackPath)

	err = NewMetadataWriter(MetadataWriterConfig{}).WriteMetadata(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyTrackPath)
}

// findVorbisComment returns the parsed comment block of the FLAC file at path.
func findVorbisComment(t *testing.T, path string) (*flac.File, *flacvorbis.MetaDataBlockVorbisComment) {
	t.Helper()

	f, err := flac.ParseFile(path)
	require.NoError(t, err)

	for _, meta := range f.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}

		comment, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		require.NoError(t, err)

		return f, comment
	}

	require.FailNow(t, "no Vorbis comment block")

	return nil, nil
}

// countFLACPictures counts picture blocks.
func countFLACPictures(f *flac.File) int {
	count := 0

	for _, meta := range f.Meta {
		if meta.Type == flac.Picture {
			count++
		}
	}

	return count
}

// TestWriteMetadata_FLACSong tests Vorbis comments and picture blocks.
func TestWriteMetadata_FLACSong(t *testing.T) {
	t.Parallel()

	var (
		dir       = t.TempDir()
		audioPath = writeMinimalFLAC(t, dir)
		cover     = encodeTestJPEG(t, 12, 12)
		coverPath = writeTestFile(t, dir, "cover.jpg", cover)
		writer    = NewMetadataWriter(MetadataWriterConfig{})
		request   = &WriteMetadataRequest{
			AudioPath: audioPath,
			CoverPath: coverPath,
			LyricText: testLyric,
			Record:    newTestSongRecord(),
		}
	)

	// Writing twice must not duplicate anything.
	require.NoError(t, writer.WriteMetadata(context.Background(), request))
	require.NoError(t, writer.WriteMetadata(context.Background(), request))

	f, comment := findVorbisComment(t, audioPath)
	assert.Equal(t, 1, countFLACPictures(f))

	for key, expected := range map[string]string{
		"TITLE":        "晴天",
		"ARTIST":       "周杰伦",
		"ALBUM":        "叶惠美",
		"TRACKNUMBER":  "3",
		"TRACKTOTAL":   "12",
		"LYRICS":       "Hello\nWorld\n",
		"SYNCEDLYRICS": "[00:12.340]Hello\n[00:15.000]World\n",
	} {
		values, err := comment.Get(key)
		require.NoError(t, err)
		assert.Equal(t, []string{expected}, values, key)
	}

	metadata := readTestMetadata(t, audioPath)
	assert.Equal(t, "晴天", metadata.Title())
	assert.Equal(t, tag.FLAC, metadata.FileType())
}

// TestWriteMetadata_FLACEpisode tests that episodes carry no track position.
func TestWriteMetadata_FLACEpisode(t *testing.T) {
	t.Parallel()

	audioPath := writeMinimalFLAC(t, t.TempDir())

	require.NoError(t, NewMetadataWriter(MetadataWriterConfig{}).WriteMetadata(context.Background(),
		&WriteMetadataRequest{AudioPath: audioPath, Record: newTestEpisodeRecord()}))

	f, comment := findVorbisComment(t, audioPath)
	assert.Zero(t, countFLACPictures(f))

	values, err := comment.Get("ARTIST")
	require.NoError(t, err)
	assert.Equal(t, []string{"DJ Lin"}, values)

	values, err = comment.Get("TRACKNUMBER")
	require.NoError(t, err)
	assert.Empty(t, values)
}

// TestWithoutVorbisKeys tests case-insensitive removal of rewritten keys.
func TestWithoutVorbisKeys(t *testing.T) {
	t.Parallel()

	comments := []string{"title=Old", "GENRE=Pop", "Artist=Someone", "broken"}
	fields := [][2]string{{"TITLE", "New"}, {"ARTIST", ""}}

	assert.Equal(t, []string{"GENRE=Pop", "broken"}, withoutVorbisKeys(comments, fields))
}
