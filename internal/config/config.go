package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/ncm-grabber/internal/constants"
	"github.com/oshokin/ncm-grabber/internal/logger"
	"github.com/oshokin/ncm-grabber/internal/utils"
)

// Config holds all configuration settings.
type Config struct {
	// APIBaseURL is the base URL of the catalog API.
	APIBaseURL string `mapstructure:"api_base_url"`
	// OutputPath is the directory path where downloaded files will be saved.
	OutputPath string `mapstructure:"output_path"`
	// SongNameType selects the file name scheme (1=title, 2=artist - title, 3=title - artist).
	SongNameType uint8 `mapstructure:"song_name_type"`
	// SongFolderType selects the folder scheme (1=flat, 2=artist, 3=artist/album).
	SongFolderType uint8 `mapstructure:"song_folder_type"`
	// AudioLevel is the requested stream quality level (standard, higher, exhigh, lossless).
	AudioLevel string `mapstructure:"audio_level"`
	// DownloadLyrics indicates whether to download and embed lyrics.
	DownloadLyrics bool `mapstructure:"download_lyrics"`
	// LogLevel specifies the logging verbosity level.
	LogLevel string `mapstructure:"log_level"`
	// DownloadSpeedLimit sets the maximum download speed per second (e.g., "1MB", "500KB").
	DownloadSpeedLimit string `mapstructure:"download_speed_limit"`
	// MaxConcurrentDownloads is the maximum number of track pipelines running at once.
	MaxConcurrentDownloads int64 `mapstructure:"max_concurrent_downloads"`
	// RetryAttemptsCount is the number of retries for catalog API requests.
	RetryAttemptsCount int64 `mapstructure:"retry_attempts_count"`
	// MinRetryPause is the minimum pause before retrying a catalog request.
	MinRetryPause string `mapstructure:"min_retry_pause"`
	// MaxRetryPause is the maximum pause before retrying a catalog request.
	MaxRetryPause string `mapstructure:"max_retry_pause"`
	// CoverMaxSize is the bounding box side, in pixels, covers are shrunk to.
	CoverMaxSize uint `mapstructure:"cover_max_size"`
	// CoverQuality is the JPEG quality used when re-encoding a resized cover.
	CoverQuality int `mapstructure:"cover_quality"`
	// TagVersion is the ID3v2 major version written to MP3 files (3 or 4).
	TagVersion uint8 `mapstructure:"tag_version"`
	// LyricsLanguage is the ISO-639-2 code stored in lyric frames.
	LyricsLanguage string `mapstructure:"lyrics_language"`
	// CoverLegacyEncoding stores the APIC text encoding as ISO-8859-1 instead of UTF-16.
	CoverLegacyEncoding bool `mapstructure:"cover_legacy_encoding"`
	// ProgressStyle selects the progress renderer (line, bar, none).
	ProgressStyle string `mapstructure:"progress_style"`
	// ParsedDownloadSpeedLimit is the parsed download speed limit in bytes per second.
	ParsedDownloadSpeedLimit int64 `mapstructure:"-"`
	// ParsedLogLevel is the parsed zap log level.
	ParsedLogLevel zapcore.Level `mapstructure:"-"`
	// ParsedMinRetryPause is the parsed minimum retry pause duration.
	ParsedMinRetryPause time.Duration `mapstructure:"-"`
	// ParsedMaxRetryPause is the parsed maximum retry pause duration.
	ParsedMaxRetryPause time.Duration `mapstructure:"-"`
}

const (
	// DefaultAPIBaseURL is the base URL of the catalog service.
	DefaultAPIBaseURL = "https://music.163.com"

	// DefaultConfigFilename is the default name of the configuration file.
	DefaultConfigFilename = ".ncm-grabber.yaml"

	// DefaultMaxLogLength is the default maximum size (in bytes) of a single HTTP dump.
	DefaultMaxLogLength = 1 * 1024 * 1024 // 1 MB

	// envPrefix prefixes environment overrides, e.g. NCM_OUTPUT_PATH.
	envPrefix = "NCM"

	minNameType   = 1
	maxNameType   = 3
	minFolderType = 1
	maxFolderType = 3
)

// Audio levels accepted by the catalog.
const (
	AudioLevelStandard = "standard"
	AudioLevelHigher   = "higher"
	AudioLevelExHigh   = "exhigh"
	AudioLevelLossless = "lossless"
)

// Progress renderers.
const (
	ProgressStyleLine = "line"
	ProgressStyleBar  = "bar"
	ProgressStyleNone = "none"
)

// Static error definitions for better error handling.
var (
	// ErrEmptyAPIBaseURL indicates that the catalog base URL is missing.
	ErrEmptyAPIBaseURL = errors.New("api_base_url cannot be empty")
	// ErrInvalidNameType indicates that the file name scheme is out of range.
	ErrInvalidNameType = errors.New("invalid song_name_type")
	// ErrInvalidFolderType indicates that the folder scheme is out of range.
	ErrInvalidFolderType = errors.New("invalid song_folder_type")
	// ErrInvalidAudioLevel indicates that the audio level is not recognized.
	ErrInvalidAudioLevel = errors.New("invalid audio_level")
	// ErrUnknownLogLevel indicates that the log level is not recognized.
	ErrUnknownLogLevel = errors.New("unknown log level")
	// ErrInvalidRetryAttempts indicates that the retry attempts count is invalid.
	ErrInvalidRetryAttempts = errors.New("retry attempts count must be a non-negative integer")
	// ErrInvalidMinRetryPause indicates that the min retry pause duration is invalid.
	ErrInvalidMinRetryPause = errors.New("min_retry_pause must be positive")
	// ErrInvalidMaxRetryPause indicates that the max retry pause duration is invalid.
	ErrInvalidMaxRetryPause = errors.New("max_retry_pause must not be less than min_retry_pause")
	// ErrInvalidConcurrentDownloads indicates that the concurrent downloads count is invalid.
	ErrInvalidConcurrentDownloads = errors.New("max concurrent downloads must be a positive integer")
	// ErrInvalidCoverMaxSize indicates that the cover bounding box is zero.
	ErrInvalidCoverMaxSize = errors.New("cover_max_size must be positive")
	// ErrInvalidCoverQuality indicates that the JPEG quality is out of range.
	ErrInvalidCoverQuality = errors.New("cover_quality must be between 1 and 100")
	// ErrInvalidTagVersion indicates an unsupported ID3v2 version.
	ErrInvalidTagVersion = errors.New("tag_version must be 3 or 4")
	// ErrInvalidLyricsLanguage indicates a language code that is not three ASCII letters.
	ErrInvalidLyricsLanguage = errors.New("lyrics_language must be a three-letter ISO-639-2 code")
	// ErrInvalidProgressStyle indicates an unknown progress renderer.
	ErrInvalidProgressStyle = errors.New("invalid progress_style")
	// ErrUnknownConfigKey indicates an attempt to set a key the configuration does not have.
	ErrUnknownConfigKey = errors.New("unknown configuration key")
)

// defaults lists every configuration key with its default value, in file order.
//
//nolint:gochecknoglobals // Immutable table shared by LoadConfig and SetConfigValue.
var defaults = []struct {
	key   string
	value any
}{
	{"api_base_url", DefaultAPIBaseURL},
	{"output_path", "downloads"},
	{"song_name_type", 1},
	{"song_folder_type", 1},
	{"audio_level", AudioLevelStandard},
	{"download_lyrics", true},
	{"log_level", "info"},
	{"download_speed_limit", ""},
	{"max_concurrent_downloads", 1},
	{"retry_attempts_count", 3},
	{"min_retry_pause", "1s"},
	{"max_retry_pause", "5s"},
	{"cover_max_size", 640},
	{"cover_quality", 90},
	{"tag_version", 3},
	{"lyrics_language", "chi"},
	{"cover_legacy_encoding", true},
	{"progress_style", ProgressStyleLine},
}

// LoadConfig loads configuration settings from a YAML file, environment variables and defaults.
// An explicitly named file must exist; the default file is optional.
func LoadConfig(configFilename string) (*Config, error) {
	v := viper.New()

	for _, d := range defaults {
		v.SetDefault(d.key, d.value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	isExplicit := configFilename != ""
	if !isExplicit {
		configFilename = DefaultConfigFilename
	}

	isExist, err := utils.IsFileExist(configFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from file: %w", err)
	}

	if isExist || isExplicit {
		v.SetConfigFile(configFilename)

		if err = v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config from file: %w", err)
		}
	}

	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// ValidateConfig checks the configuration for validity and sets derived fields.
//
//nolint:funlen,gocognit,cyclop // Validation functions naturally have high complexity and length due to sequential checks.
func ValidateConfig(cfg *Config) error {
	var (
		downloadSpeedLimit       = strings.TrimSpace(cfg.DownloadSpeedLimit)
		parsedDownloadSpeedLimit uint64
		err                      error
	)

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if cfg.APIBaseURL == "" {
		return ErrEmptyAPIBaseURL
	}

	if cfg.SongNameType < minNameType || cfg.SongNameType > maxNameType {
		return fmt.Errorf("%w: must be between %d and %d", ErrInvalidNameType, minNameType, maxNameType)
	}

	if cfg.SongFolderType < minFolderType || cfg.SongFolderType > maxFolderType {
		return fmt.Errorf("%w: must be between %d and %d", ErrInvalidFolderType, minFolderType, maxFolderType)
	}

	cfg.AudioLevel = strings.ToLower(strings.TrimSpace(cfg.AudioLevel))
	if !slices.Contains([]string{AudioLevelStandard, AudioLevelHigher, AudioLevelExHigh, AudioLevelLossless},
		cfg.AudioLevel) {
		return fmt.Errorf("%w: '%s'", ErrInvalidAudioLevel, cfg.AudioLevel)
	}

	parsedLogLevel, isLogLevelCorrect := logger.ParseLogLevel(cfg.LogLevel)
	if !isLogLevelCorrect {
		return fmt.Errorf("%w: '%s'", ErrUnknownLogLevel, cfg.LogLevel)
	}

	cfg.ParsedLogLevel = parsedLogLevel

	if downloadSpeedLimit != "" && downloadSpeedLimit != "0" {
		parsedDownloadSpeedLimit, err = humanize.ParseBytes(downloadSpeedLimit)
		if err != nil {
			return fmt.Errorf("failed to parse download speed limit: %w", err)
		}
	}

	cfg.ParsedDownloadSpeedLimit = utils.SafeUint64ToInt64(parsedDownloadSpeedLimit)

	if cfg.MaxConcurrentDownloads <= 0 {
		return ErrInvalidConcurrentDownloads
	}

	if cfg.RetryAttemptsCount < 0 {
		return ErrInvalidRetryAttempts
	}

	cfg.ParsedMinRetryPause, err = time.ParseDuration(cfg.MinRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse min retry pause: %w", err)
	}

	if cfg.ParsedMinRetryPause <= 0 {
		return ErrInvalidMinRetryPause
	}

	cfg.ParsedMaxRetryPause, err = time.ParseDuration(cfg.MaxRetryPause)
	if err != nil {
		return fmt.Errorf("failed to parse max retry pause: %w", err)
	}

	if cfg.ParsedMaxRetryPause < cfg.ParsedMinRetryPause {
		return ErrInvalidMaxRetryPause
	}

	if cfg.CoverMaxSize == 0 {
		return ErrInvalidCoverMaxSize
	}

	if cfg.CoverQuality < 1 || cfg.CoverQuality > 100 {
		return ErrInvalidCoverQuality
	}

	if cfg.TagVersion != 3 && cfg.TagVersion != 4 {
		return ErrInvalidTagVersion
	}

	cfg.LyricsLanguage = strings.ToLower(strings.TrimSpace(cfg.LyricsLanguage))
	if !isLanguageCode(cfg.LyricsLanguage) {
		return fmt.Errorf("%w: '%s'", ErrInvalidLyricsLanguage, cfg.LyricsLanguage)
	}

	cfg.ProgressStyle = strings.ToLower(strings.TrimSpace(cfg.ProgressStyle))
	if !slices.Contains([]string{ProgressStyleLine, ProgressStyleBar, ProgressStyleNone}, cfg.ProgressStyle) {
		return fmt.Errorf("%w: '%s'", ErrInvalidProgressStyle, cfg.ProgressStyle)
	}

	return nil
}

// SetConfigValue writes a single key to the configuration file while preserving
// the original order, comments and quoting of every other entry.
// The file is created when it does not exist yet.
func SetConfigValue(configFilename, key, value string) error {
	if configFilename == "" {
		configFilename = DefaultConfigFilename
	}

	if !isKnownKey(key) {
		return fmt.Errorf("%w: '%s'", ErrUnknownConfigKey, key)
	}

	// Read the original file content; a missing file starts as an empty document.
	originalContent, err := os.ReadFile(configFilename)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML while preserving order using yaml.Node.
	var node yaml.Node
	if err = yaml.Unmarshal(originalContent, &node); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	setValueInNode(&node, key, value)

	newContent, err := yaml.Marshal(&node)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err = os.WriteFile(configFilename, newContent, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setValueInNode updates key in the root mapping or appends it when absent.
func setValueInNode(node *yaml.Node, key, value string) {
	// An empty input yields a zero node; turn it into a document with an empty mapping.
	if node.Kind == 0 {
		node.Kind = yaml.DocumentNode
	}

	if len(node.Content) == 0 || node.Content[0].Kind != yaml.MappingNode {
		node.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}

	mapNode := node.Content[0]

	// Iterate through key-value pairs (stored as alternating nodes).
	for i := 0; i+1 < len(mapNode.Content); i += 2 {
		if mapNode.Content[i].Value != key {
			continue
		}

		valueNode := mapNode.Content[i+1]
		valueNode.Kind = yaml.ScalarNode
		valueNode.Value = value
		valueNode.Tag = ""

		return
	}

	mapNode.Content = append(mapNode.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}

func isKnownKey(key string) bool {
	for _, d := range defaults {
		if d.key == key {
			return true
		}
	}

	return false
}

func isLanguageCode(code string) bool {
	if len(code) != 3 {
		return false
	}

	for _, r := range code {
		if r < 'a' || r > 'z' {
			return false
		}
	}

	return true
}
