package ncm

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/oshokin/ncm-grabber/internal/utils"
)

// LyricLine is one synchronized lyric entry.
type LyricLine struct {
	// Text is the display text, everything after the first ']'.
	Text string
	// OffsetMillis is the time from the start of the track.
	OffsetMillis uint32
}

// MalformedLyricLine describes a line whose timestamp could not be extracted.
type MalformedLyricLine struct {
	// LineNumber is the 1-based line number in the raw text.
	LineNumber int
	// TimestampField is the text that was inspected for a timestamp.
	TimestampField string
	// Err wraps ErrLyricLineUnparseable with the reason.
	Err error
}

// ParsedLyrics is the result of parsing bracket-timestamped lyric text.
type ParsedLyrics struct {
	// Unsynced is the content of every bracketed line followed by "\n", in order.
	Unsynced string
	// Synced holds the lines with exactly one well-formed timestamp, in order.
	Synced []LyricLine
	// Malformed holds the bracketed lines left out of Synced.
	Malformed []MalformedLyricLine
}

//nolint:gochecknoglobals // Compiled once, read-only.
var lyricTimestampPattern = regexp.MustCompile(`(?P<minutes>\d+):(?P<seconds>\d+)\.(?P<fraction>\d+)`)

const (
	millisPerMinute = 60000
	millisPerSecond = 1000
)

// ParseLyrics splits raw lyric text into unsynchronized and synchronized forms.
// A line without ']' is ignored. A malformed timestamp never stops parsing.
func ParseLyrics(raw string) *ParsedLyrics {
	var (
		result   = new(ParsedLyrics)
		unsynced strings.Builder
	)

	for index, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		bracketIndex := strings.Index(line, "]")
		if bracketIndex < 0 {
			continue
		}

		content := line[bracketIndex+1:]

		unsynced.WriteString(content)
		unsynced.WriteByte('\n')

		field := strings.ReplaceAll(line[:bracketIndex], "[", "")

		offset, err := parseLyricTimestamp(field)
		if err != nil {
			result.Malformed = append(result.Malformed, MalformedLyricLine{
				LineNumber:     index + 1,
				TimestampField: field,
				Err:            fmt.Errorf("%w: line %d: %w", ErrLyricLineUnparseable, index+1, err),
			})

			continue
		}

		result.Synced = append(result.Synced, LyricLine{Text: content, OffsetMillis: offset})
	}

	result.Unsynced = unsynced.String()

	return result
}

// parseLyricTimestamp converts "mm:ss.fff" into milliseconds.
// The digits after the dot are taken as a literal millisecond count.
func parseLyricTimestamp(field string) (uint32, error) {
	matches := lyricTimestampPattern.FindAllString(field, 2) //nolint:mnd // One match expected, two prove ambiguity.

	switch len(matches) {
	case 0:
		return 0, fmt.Errorf("no timestamp in %q", field)
	case 1:
	default:
		return 0, fmt.Errorf("more than one timestamp in %q", field)
	}

	var parts [3]uint64

	for i, group := range []string{"minutes", "seconds", "fraction"} {
		value, err := strconv.ParseUint(utils.ExtractNamedGroup(lyricTimestampPattern, group, matches[0]), 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid %s in %q: %w", group, field, err)
		}

		parts[i] = value
	}

	total := parts[0]*millisPerMinute + parts[1]*millisPerSecond + parts[2]
	if total > math.MaxUint32 {
		return 0, fmt.Errorf("offset of %q overflows 32 bits", field)
	}

	return uint32(total), nil //nolint:gosec // Bounded by the check above.
}

// FormatLRC renders synced lines back into "[mm:ss.fff]text" form.
func FormatLRC(lines []LyricLine) string {
	var builder strings.Builder

	for _, line := range lines {
		minutes := line.OffsetMillis / millisPerMinute
		seconds := line.OffsetMillis % millisPerMinute / millisPerSecond
		millis := line.OffsetMillis % millisPerSecond

		fmt.Fprintf(&builder, "[%02d:%02d.%03d]%s\n", minutes, seconds, millis, line.Text)
	}

	return builder.String()
}
