package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

const (
	barWidth       = 40
	redrawInterval = 100 * time.Millisecond
)

// Bar draws a single-line progress bar, or a running count when the total
// is unknown (zero). Redraws are throttled except on Start and Finish.
type Bar struct {
	mu      sync.Mutex
	w       io.Writer
	unit    string
	total   int64
	current int64
	started time.Time
	drawn   time.Time
	done    bool
}

// NewProgressReporter returns a Bar writing to w, os.Stderr when w is nil,
// so that progress never mixes with command output on stdout.
func NewProgressReporter(w io.Writer) ProgressReporter {
	return NewProgressReporterWithUnit(w, "items")
}

// NewProgressReporterWithUnit is like NewProgressReporter and labels the
// rate with unit, for example "receipts".
func NewProgressReporterWithUnit(w io.Writer, unit string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &Bar{w: w, unit: unit}
}

func (b *Bar) Start(total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.total = total
	b.current = 0
	b.started = time.Now()
	b.done = false
	b.draw(true)
}

// Update records current. Updates arriving out of order never move the
// bar backwards.
func (b *Bar) Update(current int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done || current <= b.current {
		return
	}
	b.current = current
	b.draw(false)
}

func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.done {
		return
	}
	b.done = true
	if b.total > 0 {
		b.current = b.total
	}
	b.draw(true)
	fmt.Fprintln(b.w)
}

// Error ends the bar with err. A later Finish is a no-op.
func (b *Bar) Error(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done = true
	fmt.Fprintf(b.w, "\n✗ Error: %v\n", err)
}

func (b *Bar) draw(force bool) {
	now := time.Now()
	if !force && now.Sub(b.drawn) < redrawInterval {
		return
	}
	b.drawn = now

	var rate float64
	if elapsed := now.Sub(b.started).Seconds(); elapsed > 0 {
		rate = float64(b.current) / elapsed
	}

	if b.total <= 0 {
		fmt.Fprintf(b.w, "\r%d %s (%.1f %s/s)", b.current, b.unit, rate, b.unit)
		return
	}

	current := min(b.current, b.total)
	percent := float64(current) / float64(b.total) * 100
	filled := int(float64(barWidth) * percent / 100)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	fmt.Fprintf(b.w, "\rProgress: [%s] %.1f%% (%d/%d) %.1f %s/s",
		bar, percent, current, b.total, rate, b.unit)
}
