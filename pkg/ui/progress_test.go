package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBarRender(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 4, "Downloading", "Complete")

	bar.Tick()
	want := "\rDownloading |" + strings.Repeat(BarFill, 12) + strings.Repeat(BarEmpty, 38) + "| 25.0% Complete"
	assert.Equal(t, want, buf.String())
}

func TestProgressBarNewlineAtCompletion(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 3, "p", "s")

	bar.Tick()
	bar.Tick()
	assert.False(t, strings.HasSuffix(buf.String(), "\n"))

	bar.Tick()
	assert.True(t, strings.HasSuffix(buf.String(), "| 100.0% s\n"))
	assert.Contains(t, buf.String(), strings.Repeat(BarFill, BarLength))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestProgressBarOneDecimal(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 3, "", "")

	bar.Tick()
	assert.Contains(t, buf.String(), "33.3%")
}

func TestProgressBarSetProgressClamps(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 10, "", "")

	bar.SetProgress(25)
	assert.Equal(t, 10, bar.Current())
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	bar.SetProgress(-1)
	assert.Equal(t, 0, bar.Current())
}

func TestProgressBarZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, 0, "p", "s")

	bar.Tick()
	bar.SetProgress(5)
	assert.Empty(t, buf.String())
}
