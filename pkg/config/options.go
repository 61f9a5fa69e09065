package config

import (
	"errors"
	"strings"
)

// ErrNoFeeds is returned when a run names no feeds
var ErrNoFeeds = errors.New("at least one subreddit is required")

// RunOptions holds the per-invocation options parsed from the command line
type RunOptions struct {
	// Count caps the posts fetched per feed; 0 means all available
	Count int
	// Output replaces the feed name as directory or archive base name
	Output string
	Zip    bool
	NSFW   bool
	Feeds  []string
}

// Validate checks that the options describe a runnable invocation
func (o *RunOptions) Validate() error {
	if o.Count < 0 {
		return errors.New("count cannot be negative")
	}

	feeds := make([]string, 0, len(o.Feeds))
	for _, feed := range o.Feeds {
		feed = strings.TrimPrefix(strings.TrimSpace(feed), "r/")
		if feed != "" {
			feeds = append(feeds, feed)
		}
	}
	if len(feeds) == 0 {
		return ErrNoFeeds
	}
	o.Feeds = feeds

	return nil
}

// Destination returns the output directory (or archive base name) for a feed
func (o *RunOptions) Destination(feed string) string {
	if o.Output != "" {
		return o.Output
	}
	return feed
}
