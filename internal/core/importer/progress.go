package importer

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressCallback defines the interface for progress reporting
type ProgressCallback interface {
	Start(total int)
	Update(name string, outcome Outcome)
	Finish()
}

// ProgressReporter draws a progress bar for a directory import
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	invalid   int
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer) *ProgressReporter {
	return &ProgressReporter{writer: w}
}

// Start resets the reporter for total files
func (p *ProgressReporter) Start(total int) {
	p.total = total
	p.current = 0
	p.invalid = 0
	p.startTime = time.Now()
}

// Update advances the bar by one file
func (p *ProgressReporter) Update(name string, outcome Outcome) {
	p.current++
	if outcome == Invalid {
		p.invalid++
	}
	if p.total == 0 {
		return
	}

	pct := float64(p.current) / float64(p.total) * 100

	barWidth := 40
	filled := barWidth * p.current / p.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	displayText := name
	if len(displayText) > 50 {
		displayText = displayText[:47] + "..."
	}

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) %-9s %s",
		bar, pct, p.current, p.total, outcome, displayText)
}

// Finish completes the progress display
func (p *ProgressReporter) Finish() {
	elapsed := time.Since(p.startTime)
	if p.total > 0 {
		_, _ = fmt.Fprintln(p.writer)
	}
	_, _ = fmt.Fprintf(p.writer, "Completed: scanned %d archives (%d invalid) in %s\n",
		p.current, p.invalid, elapsed.Round(time.Millisecond))
}
