package worker

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress renders a single-line progress bar for tile runs.
type Progress struct {
	startTime time.Time
	output    io.Writer
	stats     Stats
	mu        sync.Mutex
	enabled   bool
}

// NewProgress creates a tracker writing to w. A disabled tracker only
// records stats.
func NewProgress(total int, enabled bool, w io.Writer) *Progress {
	return &Progress{
		stats:     Stats{Total: total},
		startTime: time.Now(),
		output:    w,
		enabled:   enabled,
	}
}

// Update records a snapshot and redraws the bar.
func (p *Progress) Update(s Stats) {
	p.mu.Lock()
	p.stats = s
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

func (p *Progress) snapshot() (Stats, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats, time.Since(p.startTime)
}

// Print draws the current line.
func (p *Progress) Print() {
	s, elapsed := p.snapshot()

	var rate float64
	var eta time.Duration
	if s.Completed > 0 && elapsed > 0 {
		rate = float64(s.Completed) / elapsed.Seconds()
		eta = time.Duration(float64(s.Total-s.Completed) / rate * float64(time.Second))
	}

	filled := 0
	if s.Total > 0 {
		filled = s.Completed * barWidth / s.Total
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s%s] %d/%d tiles",
		strings.Repeat("#", filled), strings.Repeat("-", barWidth-filled), s.Completed, s.Total)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", s.Skipped)
	}
	if s.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.Failed)
	}
	fmt.Fprintf(&b, " - %.1f tiles/sec", rate)
	if s.Completed < s.Total {
		if eta > 0 {
			fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
		}
	} else {
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	}
	// Clear leftovers of a longer previous line.
	b.WriteString("        ")

	fmt.Fprint(p.output, b.String())
}

// Done prints the final line and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.output)
	}
}

// Summary describes the finished run.
func (p *Progress) Summary() string {
	s, elapsed := p.snapshot()

	var rate float64
	if elapsed > 0 {
		rate = float64(s.Completed) / elapsed.Seconds()
	}
	rendered := s.Completed - s.Failed - s.Skipped
	return fmt.Sprintf("Rendered %d/%d tiles (%d skipped, %d failed) in %s (%.1f tiles/sec)",
		rendered, s.Total, s.Skipped, s.Failed, formatDuration(elapsed), rate)
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
