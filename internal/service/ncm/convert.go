package ncm

import (
	"github.com/oshokin/ncm-grabber/internal/client/ncm"
)

// songToTrackRecord converts catalog song metadata into a TrackRecord.
func songToTrackRecord(song *ncm.Song) *TrackRecord {
	record := &TrackRecord{
		ID:       song.ID,
		Name:     song.Name,
		Kind:     TrackKindSong,
		Song:     &SongFields{Artist: song.PrimaryArtist(), Number: song.No},
		StreamID: song.ID,
	}

	if song.Album != nil {
		record.Song.Album = song.Album.Name
		record.Song.AlbumSize = song.Album.Size
		record.CoverURL = song.Album.BlurPicURL
		record.FallbackCoverURL = song.Album.PicURL
	}

	return record
}

// programToTrackRecord converts catalog program metadata into a TrackRecord.
// The audio of an episode is its main song.
func programToTrackRecord(program *ncm.Program) *TrackRecord {
	record := &TrackRecord{
		ID:       program.ID,
		Name:     program.Name,
		Kind:     TrackKindEpisode,
		Episode:  new(EpisodeFields),
		CoverURL: program.CoverURL,
		StreamID: program.ID,
	}

	if program.DJ != nil {
		record.Episode.Host = program.DJ.Nickname
		record.Episode.Brand = program.DJ.Brand
	}

	if program.MainSong != nil {
		record.StreamID = program.MainSong.ID

		if program.MainSong.Album != nil {
			record.FallbackCoverURL = program.MainSong.Album.PicURL
		}
	}

	return record
}
