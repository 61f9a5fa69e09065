package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunOptionsValidate(t *testing.T) {
	opts := &RunOptions{Feeds: []string{" r/EarthPorn ", "", "wallpapers"}}
	assert.NoError(t, opts.Validate())
	assert.Equal(t, []string{"EarthPorn", "wallpapers"}, opts.Feeds)

	assert.ErrorIs(t, (&RunOptions{}).Validate(), ErrNoFeeds)
	assert.ErrorIs(t, (&RunOptions{Feeds: []string{"  "}}).Validate(), ErrNoFeeds)
	assert.Error(t, (&RunOptions{Count: -1, Feeds: []string{"pics"}}).Validate())
}

func TestRunOptionsDestination(t *testing.T) {
	opts := &RunOptions{}
	assert.Equal(t, "pics", opts.Destination("pics"))

	opts.Output = "out"
	assert.Equal(t, "out", opts.Destination("pics"))
}
