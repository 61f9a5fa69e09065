package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsoleMarkers(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Info("Fetching images for r/%s...", "pics")
	c.Success("All downloads finished")
	c.Error("boom: %v", "bad")
	c.Warning("careful")

	assert.Equal(t,
		"[~] Fetching images for r/pics...\n"+
			"[+] All downloads finished\n"+
			"[-] boom: bad\n"+
			"[!] careful\n",
		buf.String())
}

func TestConsoleQuiet(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)
	c.SetQuiet(true)

	c.Info("hidden")
	c.Success("hidden")
	c.Highlight("hidden")
	c.Error("shown")

	assert.Equal(t, "[-] shown\n", buf.String())
}

func TestConsoleField(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	c.Field("Client ID", "abc")
	assert.Equal(t, "Client ID: abc\n", buf.String())
}
