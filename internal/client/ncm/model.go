package ncm

// FetchJSONResult is a decoded JSON response together with its HTTP status.
type FetchJSONResult[T any] struct {
	// Data is the decoded payload, nil when the request failed.
	Data *T
	// StatusCode is the HTTP status code of the response.
	StatusCode int
}

// GetSongsDetailResponse represents the response structure for fetching song details.
type GetSongsDetailResponse struct {
	// Code is the in-body status code.
	Code int `json:"code"`
	// Songs is the list of songs in request order.
	Songs []*Song `json:"songs"`
}

// GetProgramDetailResponse represents the response structure for fetching a program.
type GetProgramDetailResponse struct {
	// Code is the in-body status code.
	Code int `json:"code"`
	// Program is the requested program.
	Program *Program `json:"program"`
}

// GetSongURLResponse represents the response structure for resolving stream URLs.
type GetSongURLResponse struct {
	// Code is the in-body status code.
	Code int `json:"code"`
	// Data holds one entry per requested song.
	Data []*SongURL `json:"data"`
}

// GetLyricResponse represents the response structure for fetching lyrics.
type GetLyricResponse struct {
	// Code is the in-body status code.
	Code int `json:"code"`
	// NoLyric is set for instrumentals.
	NoLyric bool `json:"nolyric"`
	// Lrc holds the timestamped lyric.
	Lrc *Lyric `json:"lrc"`
}

// Song represents catalog metadata for a song.
type Song struct {
	// ID is the unique song identifier.
	ID int64 `json:"id"`
	// Name is the song title.
	Name string `json:"name"`
	// Artists is the list of performing artists.
	Artists []*Artist `json:"artists"`
	// Album is the album containing the song.
	Album *Album `json:"album"`
	// No is the song's position in the album.
	No int64 `json:"no"`
}

// Artist represents catalog metadata for an artist.
type Artist struct {
	// ID is the unique artist identifier.
	ID int64 `json:"id"`
	// Name is the artist name.
	Name string `json:"name"`
}

// Album represents catalog metadata for an album.
type Album struct {
	// ID is the unique album identifier.
	ID int64 `json:"id"`
	// Name is the album title.
	Name string `json:"name"`
	// PicURL is the URL of the album cover.
	PicURL string `json:"picUrl"`
	// BlurPicURL is the URL of the preferred album cover.
	BlurPicURL string `json:"blurPicUrl"`
	// Size is the number of songs in the album.
	Size int64 `json:"size"`
}

// Program represents catalog metadata for a radio program episode.
type Program struct {
	// ID is the unique program identifier.
	ID int64 `json:"id"`
	// Name is the episode title.
	Name string `json:"name"`
	// DJ is the host of the program.
	DJ *DJ `json:"dj"`
	// CoverURL is the URL of the episode cover.
	CoverURL string `json:"coverUrl"`
	// MainSong is the audio resource behind the episode.
	MainSong *Song `json:"mainSong"`
}

// DJ represents the host of a program.
type DJ struct {
	// Nickname is the host's display name.
	Nickname string `json:"nickname"`
	// Brand is the name of the radio station.
	Brand string `json:"brand"`
}

// SongURL represents a resolved stream for a song.
type SongURL struct {
	// ID is the song identifier.
	ID int64 `json:"id"`
	// URL is the playable URL, empty when the song is unavailable.
	URL string `json:"url"`
	// Type is the container extension (mp3, flac).
	Type string `json:"type"`
	// Size is the declared stream size in bytes.
	Size int64 `json:"size"`
	// Level is the quality level actually granted.
	Level string `json:"level"`
}

// Lyric represents a timestamped lyric.
type Lyric struct {
	// Lyric is the raw bracket-timestamped text.
	Lyric string `json:"lyric"`
}

// PrimaryArtist returns the first artist name, or an empty string.
func (s *Song) PrimaryArtist() string {
	if s == nil || len(s.Artists) == 0 || s.Artists[0] == nil {
		return ""
	}

	return s.Artists[0].Name
}
