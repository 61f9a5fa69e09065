// Package scraper runs a download session over a list of subreddits.
//
// For each feed the Scraper fetches the hot listing through a FeedClient,
// keeps the URLs with an accepted image extension and hands them to the
// sequential downloader. The destination is the --output name or the feed
// name itself.
//
// Zip mode:
//
// Images go to a cache directory (".cache" by default) instead of the
// destination. URLs whose filename is already an entry of <destination>.zip
// are dropped before downloading. After the batch, the cache is compressed
// into the archive, extending it when it already exists, and removed.
// If compression fails the cache is kept so the next run can pick its files up.
package scraper
