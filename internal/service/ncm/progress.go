package ncm

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/oshokin/ncm-grabber/internal/config"
)

// ProgressTracker receives the size of every chunk written during a transfer.
type ProgressTracker interface {
	// Advance adds n transferred bytes.
	Advance(n int64)
}

// ProgressTrackerFactory builds a tracker for one transfer of a known size.
type ProgressTrackerFactory func(label string, total int64) (ProgressTracker, error)

const (
	// progressEmitThreshold is how many bytes must arrive before a new status line.
	progressEmitThreshold = 10240
	// progressLabelMaxRunes bounds the label shown in a status line.
	progressLabelMaxRunes = 30
	// progressBarThrottle limits how often the bar redraws.
	progressBarThrottle = 65 * time.Millisecond
)

// lineProgressTracker prints "Progress: ..." lines, overwriting the previous one with \r.
type lineProgressTracker struct {
	label     string
	total     int64
	count     int64
	prevCount int64
	done      bool
	out       io.Writer
}

// NewLineProgressTracker creates a tracker that writes throttled status lines to out.
func NewLineProgressTracker(label string, total int64, out io.Writer) (ProgressTracker, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProgressTotal, total)
	}

	return &lineProgressTracker{
		label: truncateRunes(label, progressLabelMaxRunes),
		total: total,
		out:   out,
	}, nil
}

// Advance implements ProgressTracker.
func (t *lineProgressTracker) Advance(n int64) {
	t.count += n

	if t.count-t.prevCount > progressEmitThreshold {
		t.prevCount = t.count
		t.emit("\r")
	}

	if t.count >= t.total && !t.done {
		t.done = true
		t.emit("\n")
	}
}

func (t *lineProgressTracker) emit(terminator string) {
	percent := float64(t.count) / float64(t.total) * 100
	kilobytes := float64(t.total) / 1024

	//nolint:errcheck // Progress output is cosmetic.
	fmt.Fprintf(t.out, "Progress: %6.2f%%, %8.2fKB, [%s]%s", percent, kilobytes, t.label, terminator)
}

// barProgressTracker renders a byte progress bar.
type barProgressTracker struct {
	bar *progressbar.ProgressBar
}

// NewBarProgressTracker creates a tracker backed by a progress bar written to out.
func NewBarProgressTracker(label string, total int64, out io.Writer) (ProgressTracker, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidProgressTotal, total)
	}

	bar := progressbar.NewOptions64(
		total,
		progressbar.OptionSetDescription(truncateRunes(label, progressLabelMaxRunes)),
		progressbar.OptionSetWriter(out),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(10), //nolint:mnd // Same width as the default byte bar.
		progressbar.OptionThrottle(progressBarThrottle),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n") //nolint:errcheck // Progress output is cosmetic.
		}),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true),
	)

	return &barProgressTracker{bar: bar}, nil
}

// Advance implements ProgressTracker.
func (t *barProgressTracker) Advance(n int64) {
	_ = t.bar.Add64(n)
}

// noopProgressTracker discards progress, used when several transfers run at once.
type noopProgressTracker struct{}

// Advance implements ProgressTracker.
func (noopProgressTracker) Advance(int64) {}

// NewProgressTrackerFactory returns a factory for the configured progress style.
// Concurrent pipelines would interleave their output, so they get no tracker.
func NewProgressTrackerFactory(style string, concurrency int64, out io.Writer) ProgressTrackerFactory {
	if concurrency > 1 {
		style = config.ProgressStyleNone
	}

	switch style {
	case config.ProgressStyleBar:
		return func(label string, total int64) (ProgressTracker, error) {
			return NewBarProgressTracker(label, total, out)
		}
	case config.ProgressStyleNone:
		return func(_ string, total int64) (ProgressTracker, error) {
			if total <= 0 {
				return nil, fmt.Errorf("%w: %d", ErrInvalidProgressTotal, total)
			}

			return noopProgressTracker{}, nil
		}
	default:
		return func(label string, total int64) (ProgressTracker, error) {
			return NewLineProgressTracker(label, total, out)
		}
	}
}

// truncateRunes cuts s to at most limit runes.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
