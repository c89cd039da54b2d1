package ncm

const (
	// ncmAPISongDetailURI is the URI path for song details.
	ncmAPISongDetailURI = "api/song/detail"
	// ncmAPIProgramDetailURI is the URI path for program (episode) details.
	ncmAPIProgramDetailURI = "api/dj/program/detail"
	// ncmAPISongURLURI is the URI path for playable stream URLs.
	ncmAPISongURLURI = "api/song/enhance/player/url/v1"
	// ncmAPILyricURI is the URI path for lyrics.
	ncmAPILyricURI = "api/song/lyric"
)

const (
	// songsCacheSize defines the maximum number of song entries to cache.
	songsCacheSize = 5000
	// programsCacheSize defines the maximum number of program entries to cache.
	programsCacheSize = 1000
)

const (
	// responseCodeOK is the in-body status the catalog reports on success.
	responseCodeOK = 200
	// defaultEncodeType is the container requested for lossless streams.
	defaultEncodeType = "flac"
	// breakerName identifies the circuit breaker in its state-change logs.
	breakerName = "ncm-api"
	// breakerMaxConsecutiveFailures trips the breaker once exceeded.
	breakerMaxConsecutiveFailures = 5
)
