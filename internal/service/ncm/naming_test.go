package ncm

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestPathBuilder_AudioPath tests every name and folder scheme.
func TestPathBuilder_AudioPath(t *testing.T) {
	t.Parallel()

	song := &TrackRecord{
		ID:   1,
		Name: "Title: Part 1",
		Kind: TrackKindSong,
		Song: &SongFields{Artist: "AC/DC", Album: "Back in Black?"},
	}

	tests := []struct {
		name       string
		nameType   uint8
		folderType uint8
		streamType string
		expected   string
	}{
		{
			name:       "title, flat",
			nameType:   NameTypeTitle,
			folderType: FolderTypeFlat,
			streamType: "mp3",
			expected:   filepath.Join("out", "Title  Part 1.mp3"),
		},
		{
			name:       "artist - title, by artist",
			nameType:   NameTypeArtistTitle,
			folderType: FolderTypeArtist,
			streamType: "mp3",
			expected:   filepath.Join("out", "AC DC", "AC DC - Title  Part 1.mp3"),
		},
		{
			name:       "title - artist, by artist and album",
			nameType:   NameTypeTitleArtist,
			folderType: FolderTypeArtistAlbum,
			streamType: "FLAC",
			expected:   filepath.Join("out", "AC DC", "Back in Black", "Title  Part 1 - AC DC.flac"),
		},
		{
			name:       "unknown stream type defaults to mp3",
			nameType:   NameTypeTitle,
			folderType: FolderTypeFlat,
			streamType: "",
			expected:   filepath.Join("out", "Title  Part 1.mp3"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			builder := NewPathBuilder("out", tt.nameType, tt.folderType)
			assert.Equal(t, tt.expected, builder.AudioPath(song, tt.streamType))
		})
	}
}

// TestPathBuilder_Episode tests that episodes use host and brand.
func TestPathBuilder_Episode(t *testing.T) {
	t.Parallel()

	builder := NewPathBuilder("out", NameTypeArtistTitle, FolderTypeArtistAlbum)
	episode := newTestEpisodeRecord()

	assert.Equal(t,
		filepath.Join("out", "DJ Lin", "Radio Daybreak", "DJ Lin - Morning Show #12.mp3"),
		builder.AudioPath(episode, "mp3"))
}

// TestPathBuilder_EmptyArtist tests that a missing artist falls back to the title.
func TestPathBuilder_EmptyArtist(t *testing.T) {
	t.Parallel()

	record := &TrackRecord{ID: 5, Name: "Alone", Kind: TrackKindSong, Song: &SongFields{}}
	builder := NewPathBuilder("out", NameTypeArtistTitle, FolderTypeArtistAlbum)

	assert.Equal(t, filepath.Join("out", "Unknown", "Unknown", "Alone.mp3"), builder.AudioPath(record, "mp3"))
}

// TestPathBuilder_TemporaryPaths tests cover and lyric names.
func TestPathBuilder_TemporaryPaths(t *testing.T) {
	t.Parallel()

	builder := NewPathBuilder("out", NameTypeTitle, FolderTypeArtist)
	record := newTestSongRecord()

	assert.Equal(t, filepath.Join("out", "周杰伦", "cover_186016.jpg"), builder.CoverPath(record))
	assert.Equal(t, filepath.Join("out", "周杰伦", "lyric_186016.lrc"), builder.LyricPath(record))
}

// TestAudioExtension tests stream type mapping.
func TestAudioExtension(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".flac", AudioExtension("flac"))
	assert.Equal(t, ".flac", AudioExtension("FLAC"))
	assert.Equal(t, ".mp3", AudioExtension("mp3"))
	assert.Equal(t, ".mp3", AudioExtension("m4a"))
}
