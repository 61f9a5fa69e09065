// Package reddit provides a read-only client for subreddit listings.
//
// The client authenticates with application-only OAuth (client credentials)
// and pages through a subreddit's hot listing until the requested number of
// posts has been collected or the listing is exhausted.
//
//	client := reddit.NewClient(ctx, cfg, log)
//	urls, err := client.HotURLs(ctx, "wallpapers", 25, false)
//	if err != nil {
//	    if errors.IsType(err, errors.ErrorTypeAuth) {
//	        // bad client id or secret
//	    }
//	}
//
// Posts flagged over_18 are dropped by HotURLs unless NSFW content was
// requested. Extension filtering is left to package filter.
package reddit
