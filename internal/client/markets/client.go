// Package markets is the catalogue API client (Gamma-style REST surface):
// paged market listings for ingestion and by-id lookups for price refreshes.
package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type Client struct {
	host       string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalogue API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string, requestsPerSec float64) *Client {
	if host == "" {
		host = "https://gamma-api.polymarket.com"
	}
	host = strings.TrimRight(host, "/")
	if requestsPerSec <= 0 {
		requestsPerSec = 4
	}
	return &Client{
		host:       host,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), 1),
	}
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

type ListParams struct {
	StartDateMin *time.Time
	EndDateMin   *time.Time
	PageSize     int
	MaxPages     int
}

// ListMarkets walks the paged listing until a short page or the page cap.
func (c *Client) ListMarkets(ctx context.Context, params ListParams) ([]RawMarket, error) {
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	maxPages := params.MaxPages
	if maxPages <= 0 {
		maxPages = 40
	}

	var all []RawMarket
	offset := 0
	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(pageSize))
		query.Set("offset", strconv.Itoa(offset))
		if params.StartDateMin != nil {
			query.Set("start_date_min", params.StartDateMin.UTC().Format("2006-01-02T15:04:05Z"))
		}
		if params.EndDateMin != nil {
			query.Set("end_date_min", params.EndDateMin.UTC().Format("2006-01-02T15:04:05Z"))
		}

		body, err := c.doRequest(ctx, "/markets", query)
		if err != nil {
			return all, err
		}
		var pageItems []RawMarket
		if err := json.Unmarshal(body, &pageItems); err != nil {
			return all, fmt.Errorf("decode markets page: %w", err)
		}
		if len(pageItems) == 0 {
			break
		}
		all = append(all, pageItems...)
		if len(pageItems) < pageSize {
			break
		}
		offset += pageSize
	}
	return all, nil
}

// GetMarketsByIDs fetches the current payload for each id, keyed by id.
// Individual lookup failures are skipped; the caller treats a missing key as
// "no fresh data" and keeps the stored prices.
func (c *Client) GetMarketsByIDs(ctx context.Context, ids []string) (map[string]RawMarket, error) {
	out := make(map[string]RawMarket, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		body, err := c.doRequest(ctx, "/markets/"+url.PathEscape(id), nil)
		if err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			continue
		}
		var item RawMarket
		if err := json.Unmarshal(body, &item); err != nil {
			continue
		}
		if item.ID != "" {
			out[item.ID] = item
		}
	}
	return out, nil
}
