package ncm

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"

	"github.com/oshokin/ncm-grabber/internal/config"
	"github.com/oshokin/ncm-grabber/internal/logger"
	http_transport "github.com/oshokin/ncm-grabber/internal/transport/http"
)

// Client defines the interface for interacting with the catalog API.
type Client interface {
	// GetBaseURL returns the base URL of the catalog API.
	GetBaseURL() string
	// GetLyric retrieves the raw timestamped lyric of a song; empty when the song has none.
	GetLyric(ctx context.Context, songID int64) (string, error)
	// GetProgramDetail retrieves metadata for a program episode.
	GetProgramDetail(ctx context.Context, programID int64) (*Program, error)
	// GetSongURL resolves a playable stream for a song at the given quality level.
	// A result with an empty URL means the song is not available.
	GetSongURL(ctx context.Context, songID int64, level string) (*SongURL, error)
	// GetSongsDetail retrieves metadata for the specified song IDs.
	GetSongsDetail(ctx context.Context, songIDs []int64) (map[int64]*Song, error)
}

// ClientImpl implements the Client interface for interacting with the catalog API.
type ClientImpl struct {
	// baseURL is the base URL for API requests.
	baseURL string
	// httpClient performs requests with retries on transient failures.
	httpClient *retryablehttp.Client
	// breaker stops issuing requests while the catalog keeps failing.
	breaker *gobreaker.CircuitBreaker
	// songsCache caches song metadata to reduce duplicate API calls for the same songs.
	songsCache *lru.Cache[int64, *Song]
	// programsCache caches program metadata to reduce duplicate API calls for the same programs.
	programsCache *lru.Cache[int64, *Program]
}

// NewClient creates and returns a new instance of ClientImpl.
func NewClient(ctx context.Context, cfg *config.Config) (Client, error) {
	// Validate the base URL for the catalog API.
	baseURL, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid host URL: %w", err)
	}

	// Initialize the retrying HTTP client with custom transport and timeout.
	httpClient := retryablehttp.NewClient()
	httpClient.HTTPClient = &http.Client{
		Transport: http_transport.NewTransport(http.DefaultTransport, http_transport.DefaultUserAgent),
		Timeout:   http_transport.DefaultTimeout,
	}
	httpClient.RetryMax = int(cfg.RetryAttemptsCount)
	httpClient.RetryWaitMin = cfg.ParsedMinRetryPause
	httpClient.RetryWaitMax = cfg.ParsedMaxRetryPause
	httpClient.Logger = logger.NewRetryableHTTPLogger(ctx)

	settings := gobreaker.Settings{
		Name: breakerName,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > breakerMaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf(ctx, "Circuit breaker %s changed state from %s to %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	// Initialize LRU caches for metadata to reduce redundant API calls.
	songsCache, err := lru.New[int64, *Song](songsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create songs cache: %w", err)
	}

	programsCache, err := lru.New[int64, *Program](programsCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create programs cache: %w", err)
	}

	client := &ClientImpl{
		baseURL:       baseURL.String(),
		httpClient:    httpClient,
		breaker:       gobreaker.NewCircuitBreaker(settings),
		songsCache:    songsCache,
		programsCache: programsCache,
	}

	return client, nil
}

// GetBaseURL returns the base URL of the catalog API.
func (c *ClientImpl) GetBaseURL() string {
	return c.baseURL
}

// GetLyric retrieves the raw timestamped lyric of a song.
func (c *ClientImpl) GetLyric(ctx context.Context, songID int64) (string, error) {
	query := url.Values{}
	query.Set("id", strconv.FormatInt(songID, 10))
	query.Set("lv", "-1")

	result, err := fetchJSONWithQuery[GetLyricResponse](c, ctx, ncmAPILyricURI, query)
	if err != nil {
		return "", err
	}

	if err = checkCode(ncmAPILyricURI, result.Data.Code); err != nil {
		return "", err
	}

	if result.Data.NoLyric || result.Data.Lrc == nil {
		return "", nil
	}

	return result.Data.Lrc.Lyric, nil
}

// GetProgramDetail retrieves metadata for a program episode.
// Uses an LRU cache to avoid redundant API calls for the same programs.
func (c *ClientImpl) GetProgramDetail(ctx context.Context, programID int64) (*Program, error) {
	if cached, ok := c.programsCache.Get(programID); ok {
		logger.Debugf(ctx, "Program cache hit for ID: %d", programID)

		return cached, nil
	}

	query := url.Values{}
	query.Set("id", strconv.FormatInt(programID, 10))

	result, err := fetchJSONWithQuery[GetProgramDetailResponse](c, ctx, ncmAPIProgramDetailURI, query)
	if err != nil {
		return nil, err
	}

	if err = checkCode(ncmAPIProgramDetailURI, result.Data.Code); err != nil {
		return nil, err
	}

	program := result.Data.Program
	if program == nil {
		return nil, fmt.Errorf("%w: %d", ErrProgramNotFound, programID)
	}

	c.programsCache.Add(programID, program)

	return program, nil
}

// GetSongURL resolves a playable stream for a song at the given quality level.
// Stream URLs expire quickly, so they are never cached.
func (c *ClientImpl) GetSongURL(ctx context.Context, songID int64, level string) (*SongURL, error) {
	query := url.Values{}
	query.Set("ids", formatIDList([]int64{songID}))
	query.Set("level", level)
	query.Set("encodeType", defaultEncodeType)

	result, err := fetchJSONWithQuery[GetSongURLResponse](c, ctx, ncmAPISongURLURI, query)
	if err != nil {
		return nil, err
	}

	if err = checkCode(ncmAPISongURLURI, result.Data.Code); err != nil {
		return nil, err
	}

	for _, item := range result.Data.Data {
		if item != nil && item.ID == songID {
			return item, nil
		}
	}

	// No entry for the song: report it as unavailable.
	return &SongURL{ID: songID}, nil
}

// GetSongsDetail retrieves metadata for the specified song IDs.
// Uses an LRU cache to avoid redundant API calls for the same songs.
func (c *ClientImpl) GetSongsDetail(ctx context.Context, songIDs []int64) (map[int64]*Song, error) {
	if len(songIDs) == 0 {
		return nil, ErrEmptyIDList
	}

	result := make(map[int64]*Song, len(songIDs))
	uncachedIDs := make([]int64, 0, len(songIDs))

	// Check cache first for each song ID.
	for _, id := range songIDs {
		if cached, ok := c.songsCache.Get(id); ok {
			result[id] = cached
			logger.Debugf(ctx, "Song cache hit for ID: %d", id)
		} else {
			uncachedIDs = append(uncachedIDs, id)
		}
	}

	// If all songs were cached, return immediately.
	if len(uncachedIDs) == 0 {
		return result, nil
	}

	// Fetch uncached songs from API.
	logger.Debugf(ctx, "Fetching %d uncached songs from API", len(uncachedIDs))

	query := url.Values{}
	query.Set("ids", formatIDList(uncachedIDs))

	response, err := fetchJSONWithQuery[GetSongsDetailResponse](c, ctx, ncmAPISongDetailURI, query)
	if err != nil {
		return nil, err
	}

	if err = checkCode(ncmAPISongDetailURI, response.Data.Code); err != nil {
		return nil, err
	}

	// Store fetched songs in cache and add to result.
	for _, song := range response.Data.Songs {
		if song == nil {
			continue
		}

		c.songsCache.Add(song.ID, song)
		result[song.ID] = song
	}

	return result, nil
}
