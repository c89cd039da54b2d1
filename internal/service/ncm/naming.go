package ncm

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oshokin/ncm-grabber/internal/constants"
	"github.com/oshokin/ncm-grabber/internal/utils"
)

// File name schemes.
const (
	// NameTypeTitle names the file after the title.
	NameTypeTitle uint8 = 1
	// NameTypeArtistTitle names the file "artist - title".
	NameTypeArtistTitle uint8 = 2
	// NameTypeTitleArtist names the file "title - artist".
	NameTypeTitleArtist uint8 = 3
)

// Folder schemes.
const (
	// FolderTypeFlat puts every file directly into the output path.
	FolderTypeFlat uint8 = 1
	// FolderTypeArtist groups files by artist.
	FolderTypeArtist uint8 = 2
	// FolderTypeArtistAlbum groups files by artist, then album.
	FolderTypeArtistAlbum uint8 = 3
)

// streamTypeFLAC is the stream type reported for lossless audio.
const streamTypeFLAC = "flac"

// PathBuilder decides where the files of a track are written.
type PathBuilder struct {
	outputPath string
	nameType   uint8
	folderType uint8
}

// NewPathBuilder creates a PathBuilder rooted at outputPath.
func NewPathBuilder(outputPath string, nameType, folderType uint8) *PathBuilder {
	return &PathBuilder{
		outputPath: outputPath,
		nameType:   nameType,
		folderType: folderType,
	}
}

// Folder returns the directory of the record's files.
func (b *PathBuilder) Folder(record *TrackRecord) string {
	switch b.folderType {
	case FolderTypeArtist:
		return filepath.Join(b.outputPath, folderComponent(record.Artist()))
	case FolderTypeArtistAlbum:
		return filepath.Join(b.outputPath, folderComponent(record.Artist()), folderComponent(record.Album()))
	default:
		return b.outputPath
	}
}

// FileName returns the base name of the audio file without extension.
func (b *PathBuilder) FileName(record *TrackRecord) string {
	var (
		title  = record.Name
		artist = record.Artist()
	)

	if artist == "" {
		return utils.SanitizeFilename(title)
	}

	switch b.nameType {
	case NameTypeArtistTitle:
		return utils.SanitizeFilename(artist + " - " + title)
	case NameTypeTitleArtist:
		return utils.SanitizeFilename(title + " - " + artist)
	default:
		return utils.SanitizeFilename(title)
	}
}

// AudioPath returns the audio file path for a stream of the given type.
func (b *PathBuilder) AudioPath(record *TrackRecord, streamType string) string {
	return filepath.Join(b.Folder(record), utils.SetFileExtension(b.FileName(record), AudioExtension(streamType), false))
}

// CoverPath returns the temporary cover path next to the audio file.
func (b *PathBuilder) CoverPath(record *TrackRecord) string {
	return filepath.Join(b.Folder(record), constants.CoverTempPrefix+strconv.FormatInt(record.ID, 10)+
		constants.ExtensionJPG)
}

// LyricPath returns the temporary lyric path next to the audio file.
func (b *PathBuilder) LyricPath(record *TrackRecord) string {
	return filepath.Join(b.Folder(record), constants.LyricTempPrefix+strconv.FormatInt(record.ID, 10)+
		constants.ExtensionLRC)
}

// AudioExtension maps a stream type to a file extension, MP3 unless the stream is FLAC.
func AudioExtension(streamType string) string {
	if strings.EqualFold(streamType, streamTypeFLAC) {
		return constants.ExtensionFLAC
	}

	return constants.ExtensionMP3
}

// folderComponent sanitizes a folder name, substituting a placeholder for an empty one.
func folderComponent(name string) string {
	sanitized := utils.SanitizeFilename(name)
	if sanitized == "" {
		return "Unknown"
	}

	return sanitized
}
