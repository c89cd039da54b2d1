package ncm

//go:generate $MOCKGEN -source=url_processor.go -destination=mocks/url_processor_mock.go

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/oshokin/ncm-grabber/internal/constants"
	"github.com/oshokin/ncm-grabber/internal/logger"
	"github.com/oshokin/ncm-grabber/internal/utils"
)

// URLProcessor defines the interface for turning command-line arguments into download items.
type URLProcessor interface {
	// ExtractDownloadItems parses IDs, URLs and .txt files into deduplicated items.
	// Bare IDs get defaultKind.
	ExtractDownloadItems(ctx context.Context, args []string, defaultKind TrackKind) ([]*DownloadItem, error)
}

// URLProcessorImpl implements the URLProcessor interface.
type URLProcessorImpl struct{}

// shortDownloadItem is the deduplication key of a DownloadItem.
type shortDownloadItem struct {
	Kind   TrackKind
	ItemID int64
}

// kindsByPatterns maps URL patterns to record kinds.
//
//nolint:gochecknoglobals // Immutable lookup table.
var kindsByPatterns = []struct {
	// Pattern is the regex pattern to match URLs.
	Pattern *regexp.Regexp
	// Kind is the record kind for matched URLs.
	Kind TrackKind
}{
	{regexp.MustCompile(`song\?(?:.*&)?id=(?P<ID>\d+)`), TrackKindSong},
	{regexp.MustCompile(`program\?(?:.*&)?id=(?P<ID>\d+)`), TrackKindEpisode},
	{regexp.MustCompile(`dj\?(?:.*&)?id=(?P<ID>\d+)`), TrackKindEpisode},
}

//nolint:gochecknoglobals // Compiled once, read-only.
var bareIDPattern = regexp.MustCompile(`^(?P<ID>\d+)$`)

// NewURLProcessor creates and returns a new instance of URLProcessorImpl.
func NewURLProcessor() URLProcessor {
	return &URLProcessorImpl{}
}

// ExtractDownloadItems implements URLProcessor.
func (up *URLProcessorImpl) ExtractDownloadItems(
	ctx context.Context,
	args []string,
	defaultKind TrackKind,
) ([]*DownloadItem, error) {
	// Process and flatten arguments to handle text files containing several IDs.
	args, err := up.processAndFlattenArgs(args)
	if err != nil {
		return nil, err
	}

	var (
		result = make([]*DownloadItem, 0, len(args))
		seen   = make(map[shortDownloadItem]struct{}, len(args))
	)

	for _, arg := range args {
		item := up.parseDownloadItem(arg, defaultKind)
		if item == nil {
			logger.Warnf(ctx, "Unknown ID or URL: %s", arg)

			continue
		}

		key := shortDownloadItem{Kind: item.Kind, ItemID: item.ItemID}
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		result = append(result, item)
	}

	return result, nil
}

func (up *URLProcessorImpl) parseDownloadItem(arg string, defaultKind TrackKind) *DownloadItem {
	arg = strings.TrimSpace(arg)

	// A bare number takes the kind chosen on the command line.
	if id := utils.ExtractNamedGroup(bareIDPattern, "ID", arg); id != "" {
		return newDownloadItem(defaultKind, arg, id)
	}

	for _, p := range kindsByPatterns {
		if id := utils.ExtractNamedGroup(p.Pattern, "ID", arg); id != "" {
			return newDownloadItem(p.Kind, arg, id)
		}
	}

	return nil
}

func newDownloadItem(kind TrackKind, arg, id string) *DownloadItem {
	itemID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || itemID <= 0 {
		return nil
	}

	return &DownloadItem{Kind: kind, URL: arg, ItemID: itemID}
}

func (up *URLProcessorImpl) processAndFlattenArgs(args []string) ([]string, error) {
	var (
		// Track processed arguments.
		processedSet = make(map[string]struct{})
		// Track processed text files.
		processedTextFiles = make(map[string]struct{})
		// Store the final list of arguments.
		processedArgs []string
	)

	add := func(arg string) {
		if _, ok := processedSet[arg]; ok {
			return
		}

		processedSet[arg] = struct{}{}

		processedArgs = append(processedArgs, arg)
	}

	for _, arg := range args {
		if !strings.HasSuffix(strings.ToLower(arg), constants.ExtensionTXT) {
			add(arg)

			continue
		}

		// Skip already processed text files.
		if _, exists := processedTextFiles[arg]; exists {
			continue
		}

		lines, err := utils.ReadUniqueLinesFromFile(arg)
		if err != nil {
			return nil, err
		}

		for _, line := range lines {
			add(line)
		}

		processedTextFiles[arg] = struct{}{}
	}

	return processedArgs, nil
}
