package ncm

//go:generate $MOCKGEN -source=metadata_writer.go -destination=mocks/metadata_writer_mock.go

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/oshokin/id3v2/v2"

	"github.com/oshokin/ncm-grabber/internal/constants"
	"github.com/oshokin/ncm-grabber/internal/logger"
	"github.com/oshokin/ncm-grabber/internal/utils"
)

// MetadataWriter embeds cover, text fields and lyrics into a downloaded audio file.
type MetadataWriter interface {
	WriteMetadata(ctx context.Context, req *WriteMetadataRequest) error
}

// WriteMetadataRequest contains parameters for tagging one audio file.
type WriteMetadataRequest struct {
	// AudioPath is the file to tag.
	AudioPath string
	// CoverPath is the JPEG cover to embed, empty for none.
	CoverPath string
	// LyricText is the raw bracket-timestamped lyric, empty for none.
	LyricText string
	// Record supplies title, artist, album and track number.
	Record *TrackRecord
}

// MetadataWriterConfig selects tag flavors.
type MetadataWriterConfig struct {
	// TagVersion is the ID3v2 major version, 3 or 4.
	TagVersion byte
	// LyricsLanguage is the ISO-639-2 code of lyric frames.
	LyricsLanguage string
	// CoverLegacyEncoding writes the picture frame with Latin-1 instead of UTF-16.
	CoverLegacyEncoding bool
}

// MetadataWriterImpl provides the default implementation of MetadataWriter.
type MetadataWriterImpl struct {
	cfg MetadataWriterConfig
}

// tagSession carries state between the steps of one WriteMetadata call.
type tagSession struct {
	req    *WriteMetadataRequest
	cover  []byte
	mp3    *id3v2.Tag
	flac   *flac.File
	vorbis *flacvorbis.MetaDataBlockVorbisComment
	// vorbisIndex is the position of the Vorbis comment block in flac.Meta.
	vorbisIndex int
}

// tagStep is one named stage of tagging.
type tagStep struct {
	name string
	run  func(ctx context.Context, s *tagSession) error
}

const (
	// unsyncedLyricsDescriptor is the content descriptor of USLT frames.
	unsyncedLyricsDescriptor = "Unsynchronised lyric"
	// syncedLyricsDescriptor is the content descriptor of SYLT frames.
	syncedLyricsDescriptor = "Synchronised lyric"
	// DefaultLyricsLanguage is the language code of lyric frames.
	DefaultLyricsLanguage = "chi"
	// DefaultTagVersion is the ID3v2 major version written by default.
	DefaultTagVersion = 3
)

// Frame identifiers that are deleted before being written again.
const (
	frameIDPicture       = "APIC"
	frameIDArtist        = "TPE1"
	frameIDTitle         = "TIT2"
	frameIDAlbum         = "TALB"
	frameIDTrackNumber   = "TRCK"
	frameIDUnsyncedLyric = "USLT"
)

// Vorbis comment keys.
const (
	vorbisKeyTitle        = "TITLE"
	vorbisKeyArtist       = "ARTIST"
	vorbisKeyAlbum        = "ALBUM"
	vorbisKeyTrackNumber  = "TRACKNUMBER"
	vorbisKeyTrackTotal   = "TRACKTOTAL"
	vorbisKeyLyrics       = "LYRICS"
	vorbisKeySyncedLyrics = "SYNCEDLYRICS"
)

// NewMetadataWriter creates a new MetadataWriter instance.
func NewMetadataWriter(cfg MetadataWriterConfig) MetadataWriter {
	if cfg.TagVersion == 0 {
		cfg.TagVersion = DefaultTagVersion
	}

	if cfg.LyricsLanguage == "" {
		cfg.LyricsLanguage = DefaultLyricsLanguage
	}

	return &MetadataWriterImpl{cfg: cfg}
}

// WriteMetadata tags the audio file named by req, choosing ID3v2 or Vorbis comments by extension.
func (w *MetadataWriterImpl) WriteMetadata(ctx context.Context, req *WriteMetadataRequest) error {
	if req == nil || req.AudioPath == "" {
		return ErrEmptyTrackPath
	}

	var steps []tagStep

	switch strings.ToLower(filepath.Ext(req.AudioPath)) {
	case constants.ExtensionMP3:
		steps = w.mp3Steps()
	case constants.ExtensionFLAC:
		steps = w.flacSteps()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedContainer, filepath.Ext(req.AudioPath))
	}

	session := &tagSession{req: req, vorbisIndex: -1}
	defer session.close()

	// A missing cover file only means there is nothing to embed.
	if req.CoverPath != "" {
		cover, err := os.ReadFile(filepath.Clean(req.CoverPath))
		if err != nil {
			logger.Warnf(ctx, "Failed to read cover '%s', tagging without it: %v", req.CoverPath, err)
		} else {
			session.cover = cover
		}
	}

	for _, step := range steps {
		if err := step.run(ctx, session); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func (s *tagSession) close() {
	if s.mp3 != nil {
		s.mp3.Close() //nolint:errcheck,gosec // Save already reported any write failure.
	}
}

func (w *MetadataWriterImpl) mp3Steps() []tagStep {
	return []tagStep{
		{name: "validating MPEG stream", run: w.validateMPEG},
		{name: "ensuring ID3 section", run: w.ensureID3Section},
		{name: "opening ID3 tag", run: w.openID3Tag},
		{name: "embedding cover", run: w.embedMP3Cover},
		{name: "writing text frames", run: w.writeMP3TextFrames},
		{name: "writing track number", run: w.writeMP3TrackNumber},
		{name: "writing lyrics", run: w.writeMP3Lyrics},
		{name: "saving ID3 tag", run: w.saveMP3},
	}
}

func (w *MetadataWriterImpl) validateMPEG(_ context.Context, s *tagSession) error {
	if err := probeMPEGFile(s.req.AudioPath); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedContainer, err)
	}

	return nil
}

func (w *MetadataWriterImpl) ensureID3Section(ctx context.Context, s *tagSession) error {
	hasHeader, err := hasID3Header(s.req.AudioPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTagSectionCreationFailed, err)
	}

	if hasHeader {
		return nil
	}

	logger.Debugf(ctx, "File '%s' has no ID3 section, adding an empty one", s.req.AudioPath)

	if err = prependEmptyID3Header(s.req.AudioPath); err != nil {
		return fmt.Errorf("%w: %w", ErrTagSectionCreationFailed, err)
	}

	return nil
}

func (w *MetadataWriterImpl) openID3Tag(_ context.Context, s *tagSession) error {
	//nolint:exhaustruct // ParseFrames omitted to parse every frame.
	tag, err := id3v2.Open(s.req.AudioPath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedContainer, err)
	}

	tag.SetVersion(w.cfg.TagVersion)

	s.mp3 = tag

	return nil
}

func (w *MetadataWriterImpl) embedMP3Cover(ctx context.Context, s *tagSession) error {
	if len(s.cover) == 0 {
		logger.Debugf(ctx, "No cover for '%s'", s.req.AudioPath)

		return nil
	}

	pictureEncoding := id3v2.EncodingUTF16
	if w.cfg.CoverLegacyEncoding {
		pictureEncoding = id3v2.EncodingISO
	}

	s.mp3.DeleteFrames(frameIDPicture)
	s.mp3.AddFrame(frameIDPicture, newFrontCoverFrame(pictureEncoding, utils.ImageJPEGMimeType, s.cover))

	return nil
}

func (w *MetadataWriterImpl) writeMP3TextFrames(_ context.Context, s *tagSession) error {
	record := s.req.Record
	if record == nil {
		return nil
	}

	setMP3TextFrame(s.mp3, frameIDArtist, record.Artist())
	setMP3TextFrame(s.mp3, frameIDTitle, record.Name)
	setMP3TextFrame(s.mp3, frameIDAlbum, record.Album())

	return nil
}

// setMP3TextFrame replaces the frame id with value. Empty values only remove it.
func setMP3TextFrame(tag *id3v2.Tag, id, value string) {
	tag.DeleteFrames(id)

	if value == "" {
		return
	}

	tag.AddFrame(id, newTextFrame(id3v2.EncodingUTF16, value))
}

func (w *MetadataWriterImpl) writeMP3TrackNumber(_ context.Context, s *tagSession) error {
	if s.req.Record == nil {
		return nil
	}

	// Episodes carry no position, so a stale one is only removed.
	trackNumber, _ := s.req.Record.TrackNumber()
	setMP3TextFrame(s.mp3, frameIDTrackNumber, trackNumber)

	return nil
}

func (w *MetadataWriterImpl) writeMP3Lyrics(ctx context.Context, s *tagSession) error {
	if strings.TrimSpace(s.req.LyricText) == "" {
		return nil
	}

	parsed := ParseLyrics(s.req.LyricText)
	logMalformedLyrics(ctx, s.req.AudioPath, parsed)

	s.mp3.DeleteFrames(frameIDUnsyncedLyric)
	s.mp3.DeleteFrames(syltFrameID)

	s.mp3.AddFrame(frameIDUnsyncedLyric, newUnsynchronisedLyricsFrame(
		id3v2.EncodingUTF16,
		w.cfg.LyricsLanguage,
		unsyncedLyricsDescriptor,
		parsed.Unsynced,
	))

	s.mp3.AddFrame(syltFrameID, newSynchronisedLyricsFrame(
		id3v2.EncodingUTF16,
		w.cfg.LyricsLanguage,
		syncedLyricsDescriptor,
		parsed.Synced,
	))

	return nil
}

func (w *MetadataWriterImpl) saveMP3(_ context.Context, s *tagSession) error {
	return s.mp3.Save()
}

func (w *MetadataWriterImpl) flacSteps() []tagStep {
	return []tagStep{
		{name: "parsing FLAC stream", run: w.parseFLAC},
		{name: "ensuring Vorbis comment", run: w.ensureVorbisComment},
		{name: "embedding cover", run: w.embedFLACCover},
		{name: "writing Vorbis comments", run: w.writeVorbisComments},
		{name: "saving FLAC file", run: w.saveFLAC},
	}
}

func (w *MetadataWriterImpl) parseFLAC(_ context.Context, s *tagSession) error {
	f, err := flac.ParseFile(filepath.Clean(s.req.AudioPath))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedContainer, err)
	}

	s.flac = f

	return nil
}

func (w *MetadataWriterImpl) ensureVorbisComment(_ context.Context, s *tagSession) error {
	for idx, meta := range s.flac.Meta {
		if meta.Type != flac.VorbisComment {
			continue
		}

		comment, err := flacvorbis.ParseFromMetaDataBlock(*meta)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrMalformedContainer, err)
		}

		s.vorbis = comment
		s.vorbisIndex = idx

		return nil
	}

	// No comment block yet, so an empty one is appended.
	s.vorbis = flacvorbis.New()
	meta := s.vorbis.Marshal()
	s.flac.Meta = append(s.flac.Meta, &meta)
	s.vorbisIndex = len(s.flac.Meta) - 1

	return nil
}

func (w *MetadataWriterImpl) embedFLACCover(ctx context.Context, s *tagSession) error {
	if len(s.cover) == 0 {
		return nil
	}

	picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "", s.cover, utils.ImageJPEGMimeType)
	if err != nil {
		logger.Warnf(ctx, "Failed to embed cover into '%s': %v", s.req.AudioPath, err)

		return nil
	}

	// Drop previous pictures, keeping the comment index in step.
	kept := make([]*flac.MetaDataBlock, 0, len(s.flac.Meta)+1)

	for idx, meta := range s.flac.Meta {
		if meta.Type == flac.Picture {
			continue
		}

		if idx == s.vorbisIndex {
			s.vorbisIndex = len(kept)
		}

		kept = append(kept, meta)
	}

	pictureMeta := picture.Marshal()
	s.flac.Meta = append(kept, &pictureMeta)

	return nil
}

func (w *MetadataWriterImpl) writeVorbisComments(ctx context.Context, s *tagSession) error {
	record := s.req.Record

	fields := make([][2]string, 0, 7) //nolint:mnd // Title, artist, album, number, total, two lyric keys.

	if record != nil {
		fields = append(fields,
			[2]string{vorbisKeyTitle, record.Name},
			[2]string{vorbisKeyArtist, record.Artist()},
			[2]string{vorbisKeyAlbum, record.Album()},
		)

		// Empty values strip a stale position from episodes.
		var number, total string

		if record.Kind == TrackKindSong && record.Song != nil {
			number = strconv.FormatInt(record.Song.Number, 10)
			total = strconv.FormatInt(record.Song.AlbumSize, 10)
		}

		fields = append(fields,
			[2]string{vorbisKeyTrackNumber, number},
			[2]string{vorbisKeyTrackTotal, total},
		)
	}

	if strings.TrimSpace(s.req.LyricText) != "" {
		parsed := ParseLyrics(s.req.LyricText)
		logMalformedLyrics(ctx, s.req.AudioPath, parsed)

		fields = append(fields,
			[2]string{vorbisKeyLyrics, parsed.Unsynced},
			[2]string{vorbisKeySyncedLyrics, FormatLRC(parsed.Synced)},
		)
	}

	s.vorbis.Comments = withoutVorbisKeys(s.vorbis.Comments, fields)

	for _, field := range fields {
		if field[1] == "" {
			continue
		}

		if err := s.vorbis.Add(field[0], field[1]); err != nil {
			return err
		}
	}

	return nil
}

func (w *MetadataWriterImpl) saveFLAC(_ context.Context, s *tagSession) error {
	meta := s.vorbis.Marshal()
	s.flac.Meta[s.vorbisIndex] = &meta

	return s.flac.Save(s.req.AudioPath)
}

// withoutVorbisKeys drops comments whose key is about to be written again.
func withoutVorbisKeys(comments []string, fields [][2]string) []string {
	kept := comments[:0]

	for _, comment := range comments {
		key, _, _ := strings.Cut(comment, "=")

		replaced := false

		for _, field := range fields {
			if strings.EqualFold(key, field[0]) {
				replaced = true

				break
			}
		}

		if !replaced {
			kept = append(kept, comment)
		}
	}

	return kept
}

func logMalformedLyrics(ctx context.Context, audioPath string, parsed *ParsedLyrics) {
	for _, line := range parsed.Malformed {
		logger.Warnf(ctx, "Skipping lyric line of '%s': %v", audioPath, line.Err)
	}
}
