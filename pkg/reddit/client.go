package reddit

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"riddle/pkg/config"
	"riddle/pkg/errors"
	"riddle/pkg/logger"
)

// Client represents a Reddit API client
type Client struct {
	httpClient *http.Client
	apiURL     string
	pageSize   int
	logger     logger.Logger
}

// userAgentTransport stamps the configured User-Agent on every request.
// Reddit rejects API calls that arrive with a generic agent.
type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.agent)
	return t.base.RoundTrip(clone)
}

// NewClient creates a Reddit client authenticated with application-only OAuth.
// The token is fetched lazily on the first request and refreshed on expiry.
func NewClient(ctx context.Context, cfg *config.Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	base := &http.Client{
		Timeout:   cfg.Download.Timeout,
		Transport: &userAgentTransport{agent: cfg.UserAgent, base: http.DefaultTransport},
	}

	var clientID, clientSecret string
	if cfg.Credentials != nil {
		clientID = cfg.Credentials.ClientID
		clientSecret = cfg.Credentials.ClientSecret
	}

	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     cfg.Reddit.AuthURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	httpClient := cc.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	httpClient.Timeout = cfg.Download.Timeout

	return &Client{
		httpClient: httpClient,
		apiURL:     cfg.Reddit.APIURL,
		pageSize:   cfg.Reddit.PageSize,
		logger:     log,
	}
}

// Hot fetches up to limit posts from a subreddit's hot listing.
// A limit of 0 fetches every post the listing will page through.
func (c *Client) Hot(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	var posts []Post
	after := ""

	for page := 1; ; page++ {
		size := c.pageSize
		if limit > 0 && limit-len(posts) < size {
			size = limit - len(posts)
		}

		listing, err := c.fetchListing(ctx, HotURL(c.apiURL, subreddit, size, after))
		if err != nil {
			return posts, err
		}

		for _, child := range listing.Data.Children {
			posts = append(posts, child.Data)
			if limit > 0 && len(posts) >= limit {
				break
			}
		}

		c.logger.DebugWithFields("fetched listing page", map[string]interface{}{
			"subreddit": subreddit,
			"page":      page,
			"posts":     len(listing.Data.Children),
			"total":     len(posts),
		})

		after = listing.Data.After
		if after == "" || len(listing.Data.Children) == 0 || (limit > 0 && len(posts) >= limit) {
			return posts, nil
		}
	}
}

// HotURLs returns the linked URL of each hot post, dropping age-restricted
// posts unless nsfw is set. The limit bounds the posts fetched, not the URLs kept.
func (c *Client) HotURLs(ctx context.Context, subreddit string, limit int, nsfw bool) ([]string, error) {
	posts, err := c.Hot(ctx, subreddit, limit)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(posts))
	restricted := 0
	for _, post := range posts {
		if post.Over18 && !nsfw {
			restricted++
			continue
		}
		if post.URL != "" {
			urls = append(urls, post.URL)
		}
	}

	c.logger.InfoWithFields("fetched hot listing", map[string]interface{}{
		"subreddit":  subreddit,
		"posts":      len(posts),
		"urls":       len(urls),
		"restricted": restricted,
	})

	return urls, nil
}

// fetchListing performs one listing request and decodes the response
func (c *Client) fetchListing(ctx context.Context, url string) (*Listing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeURL, err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("listing request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})

		var retrieveErr *oauth2.RetrieveError
		if stderrors.As(err, &retrieveErr) {
			authErr := &errors.Error{
				Type:    errors.ErrorTypeAuth,
				Message: "failed to obtain access token",
				Err:     err,
			}
			if retrieveErr.Response != nil {
				authErr.Code = retrieveErr.Response.StatusCode
			}
			return nil, authErr
		}
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "listing request failed")
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("listing request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if resp.StatusCode != http.StatusOK {
		return nil, errors.HTTPStatus(resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "failed to read response body")
	}

	var listing Listing
	if err := json.Unmarshal(body, &listing); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse listing", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse listing: %v", err),
			Code:    resp.StatusCode,
			Err:     err,
		}
	}

	return &listing, nil
}
