package reddit

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// MaxPageSize is the largest page the listing endpoints return
	MaxPageSize = 100
)

// HotURL constructs the URL for one page of a subreddit's hot listing
func HotURL(apiURL, subreddit string, limit int, after string) string {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("raw_json", "1")
	if after != "" {
		params.Set("after", after)
	}

	return fmt.Sprintf("%s/r/%s/hot?%s",
		strings.TrimRight(apiURL, "/"),
		url.PathEscape(subreddit),
		params.Encode())
}
