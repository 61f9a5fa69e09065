package ui

import (
	"fmt"
	"io"
	"strings"
)

const (
	// BarLength is the number of cells in the rendered bar
	BarLength = 50
	// BarFill marks a completed cell
	BarFill = "█"
	// BarEmpty marks a pending cell
	BarEmpty = "-"
)

// ProgressBar renders a single-line textual progress bar:
//
//	{prefix} |█████-----| 50.0% {suffix}
//
// Each render starts with a carriage return so the line is redrawn in place.
// A newline is written once the bar reaches its total.
type ProgressBar struct {
	out     io.Writer
	total   int
	current int
	prefix  string
	suffix  string
}

// NewProgressBar creates a bar for total steps. A bar with total 0 renders nothing.
func NewProgressBar(w io.Writer, total int, prefix, suffix string) *ProgressBar {
	if w == nil {
		w = io.Discard
	}
	return &ProgressBar{out: w, total: total, prefix: prefix, suffix: suffix}
}

// Tick advances the bar by one step and redraws it
func (p *ProgressBar) Tick() {
	p.SetProgress(p.current + 1)
}

// SetProgress sets the current step and redraws the bar
func (p *ProgressBar) SetProgress(n int) {
	if p.total <= 0 {
		return
	}
	if n < 0 {
		n = 0
	}
	if n > p.total {
		n = p.total
	}
	p.current = n
	p.render()
}

// Current returns the last rendered step
func (p *ProgressBar) Current() int {
	return p.current
}

// Total returns the number of steps
func (p *ProgressBar) Total() int {
	return p.total
}

func (p *ProgressBar) render() {
	percent := 100 * float64(p.current) / float64(p.total)
	filled := BarLength * p.current / p.total
	bar := strings.Repeat(BarFill, filled) + strings.Repeat(BarEmpty, BarLength-filled)

	fmt.Fprintf(p.out, "\r%s |%s| %.1f%% %s", p.prefix, bar, percent, p.suffix)
	if p.current == p.total {
		fmt.Fprint(p.out, "\n")
	}
}
