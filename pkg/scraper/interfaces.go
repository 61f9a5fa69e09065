package scraper

import "context"

// FeedClient fetches the linked URLs of a subreddit's hot listing
type FeedClient interface {
	HotURLs(ctx context.Context, subreddit string, limit int, nsfw bool) ([]string, error)
}
