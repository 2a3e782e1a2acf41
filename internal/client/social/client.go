// Package social is the tweet-search API client used for news ingestion. It
// wraps the advanced-search endpoint with cursor pagination, one query per
// monitored account.
package social

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("social API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey string, requestsPerSec float64) *Client {
	if host == "" {
		host = "https://api.twitterapi.io"
	}
	host = strings.TrimRight(host, "/")
	if requestsPerSec <= 0 {
		requestsPerSec = 2
	}
	return &Client{
		host:       host,
		apiKey:     apiKey,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
}

// RawTweet is the search API payload for one tweet. CreatedAt uses the
// classic "Mon Jan 02 15:04:05 -0700 2006" timestamp format.
type RawTweet struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	URL          string `json:"url"`
	CreatedAt    string `json:"createdAt"`
	LikeCount    int    `json:"likeCount"`
	RetweetCount int    `json:"retweetCount"`
	ReplyCount   int    `json:"replyCount"`
	Author       struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"author"`
}

func (t RawTweet) CreatedAtTime() (time.Time, error) {
	return time.Parse(time.RubyDate, t.CreatedAt)
}

type searchResponse struct {
	Tweets      []RawTweet `json:"tweets"`
	HasNextPage bool       `json:"has_next_page"`
	NextCursor  string     `json:"next_cursor"`
}

const searchTimeLayout = "2006-01-02_15:04:05_UTC"

// SearchAccount fetches tweets posted by one account inside [since, until),
// following the cursor until the API reports no further pages.
func (c *Client) SearchAccount(ctx context.Context, account string, since, until time.Time) ([]RawTweet, error) {
	query := fmt.Sprintf("from:%s since:%s until:%s include:nativeretweets",
		account,
		since.UTC().Format(searchTimeLayout),
		until.UTC().Format(searchTimeLayout),
	)

	var all []RawTweet
	cursor := ""
	for {
		params := url.Values{}
		params.Set("query", query)
		params.Set("queryType", "Latest")
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		body, err := c.doRequest(ctx, "/twitter/tweet/advanced_search", params)
		if err != nil {
			return all, err
		}
		var page searchResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return all, fmt.Errorf("decode search response: %w", err)
		}
		all = append(all, page.Tweets...)
		if !page.HasNextPage || page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}
	return all, nil
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
