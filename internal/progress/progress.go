// Package progress renders an optional terminal progress bar for batch
// bundle operations: downloading a set of bundles, extracting entries,
// or writing the compressed blocks of a repack. Besides the item
// counter every other progress package in the retrieval pack exposes,
// a Bar also tracks cumulative bytes moved so it can report a running
// throughput figure, since most of these operations are bounded by
// network or compression throughput rather than item count alone.
package progress

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"
)

const labelWidth = 20

// Bar renders a terminal progress bar over a batch of total items,
// tracking the current item's label and, optionally, the cumulative
// byte count moved so far for a throughput readout.
type Bar struct {
	container *mpb.Progress
	bar       *mpb.Bar
	enabled   bool
	label     string
	startedAt time.Time
	bytesDone int64
}

// New starts a Bar over total items. It renders nothing if enabled is
// false or stderr isn't a terminal.
func New(total int, enabled bool) *Bar {
	enabled = enabled && isTerminal()

	b := &Bar{enabled: enabled, startedAt: time.Now()}
	if !enabled {
		return b
	}

	fmt.Fprintln(os.Stderr)

	b.container = mpb.New(
		mpb.WithOutput(os.Stderr),
		mpb.WithWidth(64),
		mpb.WithRefreshRate(100*time.Millisecond),
	)

	b.bar = b.container.New(int64(total),
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string {
				return truncateLabel(b.label)
			}, decor.WC{W: labelWidth, C: decor.DindentRight}),
			decor.Name("  "),
			decor.CountersNoUnit("%d/%d", decor.WC{C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
			decor.Any(func(decor.Statistics) string {
				return b.throughput()
			}, decor.WC{W: 16, C: decor.DindentRight}),
		),
	)

	return b
}

func truncateLabel(label string) string {
	if len(label) > labelWidth {
		return label[:labelWidth-2] + ".."
	}
	return label
}

// throughput reports bytes/sec and elapsed time since the bar started,
// once at least one byte count has been reported via Update.
func (b *Bar) throughput() string {
	if b.bytesDone == 0 {
		return ""
	}
	elapsed := time.Since(b.startedAt)
	rate := float64(b.bytesDone) / elapsed.Seconds()
	return fmt.Sprintf("%s/s %s", formatRate(rate), formatElapsed(elapsed))
}

// Update advances the bar to current of total, setting label as the
// description of the item currently in flight. A caller that knows how
// many bytes have been moved across the whole batch so far may pass it
// as bytesDone to drive the throughput decorator.
func (b *Bar) Update(current int, label string, bytesDone ...int64) {
	if !b.enabled || b.bar == nil {
		return
	}
	b.label = label
	if len(bytesDone) > 0 {
		b.bytesDone = bytesDone[0]
	}
	b.bar.SetCurrent(int64(current))
}

// Finish waits for the bar to render its final frame and tears down the
// underlying container.
func (b *Bar) Finish() {
	if !b.enabled || b.container == nil {
		return
	}
	b.container.Wait()
	fmt.Fprintln(os.Stderr)
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// Number formats n with thousands separators, e.g. 1234567 -> "1,234,567".
func Number(n int64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var b strings.Builder
	for i, digit := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String()
}

// formatRate renders a bytes-per-second figure with a K/M suffix once
// it's large enough that the raw number stops being readable at a
// glance.
func formatRate(rate float64) string {
	switch {
	case rate < 1000:
		return fmt.Sprintf("%.0fB", rate)
	case rate < 1000*1000:
		return fmt.Sprintf("%.1fKB", rate/1000)
	default:
		return fmt.Sprintf("%.1fMB", rate/(1000*1000))
	}
}

// formatElapsed renders a short "Ns"/"NmNs"/"NhNm" duration, matching
// the coarseness a progress decorator needs over full precision.
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
