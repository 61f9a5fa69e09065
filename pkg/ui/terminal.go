package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Console writes human-readable status lines, colored by severity.
// The prefixes mirror the classic "[+]" / "[~]" / "[-]" markers.
type Console struct {
	out   io.Writer
	quiet bool

	red     *color.Color
	green   *color.Color
	cyan    *color.Color
	yellow  *color.Color
	magenta *color.Color
}

// NewConsole creates a console writing to w. Colors are disabled when
// useColor is false or when fatih/color detects a non-terminal.
func NewConsole(w io.Writer, useColor bool) *Console {
	if w == nil {
		w = os.Stdout
	}

	c := &Console{
		out:     w,
		red:     color.New(color.FgRed),
		green:   color.New(color.FgGreen),
		cyan:    color.New(color.FgCyan),
		yellow:  color.New(color.FgYellow),
		magenta: color.New(color.FgMagenta),
	}

	if !useColor {
		for _, col := range []*color.Color{c.red, c.green, c.cyan, c.yellow, c.magenta} {
			col.DisableColor()
		}
	}
	return c
}

// SetQuiet suppresses everything except errors
func (c *Console) SetQuiet(quiet bool) {
	c.quiet = quiet
}

// Quiet reports whether non-error output is suppressed
func (c *Console) Quiet() bool {
	return c.quiet
}

// Writer returns the underlying output, for progress bars that share the line
func (c *Console) Writer() io.Writer {
	return c.out
}

// Error prints a failure line. Errors are printed even in quiet mode.
func (c *Console) Error(format string, args ...interface{}) {
	c.red.Fprintf(c.out, "[-] "+format+"\n", args...)
}

// Success prints a completion line
func (c *Console) Success(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.green.Fprintf(c.out, "[+] "+format+"\n", args...)
}

// Info prints a progress line
func (c *Console) Info(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.cyan.Fprintf(c.out, "[~] "+format+"\n", args...)
}

// Warning prints a non-fatal problem
func (c *Console) Warning(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.yellow.Fprintf(c.out, "[!] "+format+"\n", args...)
}

// Field prints a label/value pair, used by the config and auth commands
func (c *Console) Field(label string, value interface{}) {
	fmt.Fprintf(c.out, "%s: %s\n", c.cyan.Sprint(label), c.yellow.Sprint(value))
}

// Highlight prints a line without a marker
func (c *Console) Highlight(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	c.magenta.Fprintf(c.out, format+"\n", args...)
}
