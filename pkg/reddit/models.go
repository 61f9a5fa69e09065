package reddit

// Listing is the envelope Reddit wraps around paged results
type Listing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

// ListingData holds one page of things and the cursor to the next page
type ListingData struct {
	After    string  `json:"after"`
	Children []Thing `json:"children"`
}

// Thing wraps a single link post
type Thing struct {
	Kind string `json:"kind"`
	Data Post   `json:"data"`
}

// Post represents a link post in a subreddit
type Post struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Subreddit string `json:"subreddit"`
	Permalink string `json:"permalink"`
	URL       string `json:"url"`
	Over18    bool   `json:"over_18"`
	IsVideo   bool   `json:"is_video"`
	Stickied  bool   `json:"stickied"`
}
