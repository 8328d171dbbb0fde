// Package wiki talks to a MediaWiki-compatible API: page content, revision
// metadata and title search.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/models"
)

type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewClient(baseURL, userAgent string) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type parseResponse struct {
	Parse struct {
		Title        string `json:"title"`
		DisplayTitle string `json:"displaytitle"`
		Text         string `json:"text"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

type revisionsResponse struct {
	Query struct {
		Pages []struct {
			Missing   bool `json:"missing"`
			Revisions []struct {
				Timestamp string `json:"timestamp"`
			} `json:"revisions"`
		} `json:"pages"`
	} `json:"query"`
}

// FetchPage retrieves the rendered HTML, last revision timestamp, display
// name and embedded media URLs for a canonical title. Returns
// core.ErrPageNotFound when the page does not exist or the title is rejected;
// callers treat that as terminal, not retryable.
func (c *Client) FetchPage(ctx context.Context, title string) (*models.PageContent, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", title)
	params.Set("prop", "text|displaytitle")
	params.Set("redirects", "1")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	var parsed parseResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, fmt.Errorf("parse request for %q: %w", title, err)
	}
	if parsed.Error != nil {
		if parsed.Error.Code == "missingtitle" || parsed.Error.Code == "invalidtitle" {
			return nil, core.ErrPageNotFound
		}
		return nil, fmt.Errorf("parse api error for %q: %s", title, parsed.Error.Info)
	}
	if parsed.Parse.Text == "" {
		return nil, core.ErrPageNotFound
	}

	lastUpdated, err := c.lastRevisionTimestamp(ctx, title)
	if err != nil {
		// Content is present; a missing timestamp should not fail the page.
		lastUpdated = ""
	}

	display := stripTags(parsed.Parse.DisplayTitle)
	if display == "" {
		display = parsed.Parse.Title
	}

	return &models.PageContent{
		RawHTML:     parsed.Parse.Text,
		LastUpdated: lastUpdated,
		DisplayName: display,
		MediaURLs:   ExtractMediaURLs(parsed.Parse.Text, c.baseURL),
	}, nil
}

func (c *Client) lastRevisionTimestamp(ctx context.Context, title string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "revisions")
	params.Set("rvprop", "timestamp")
	params.Set("rvlimit", "1")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	var resp revisionsResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", err
	}
	for _, p := range resp.Query.Pages {
		if p.Missing {
			return "", core.ErrPageNotFound
		}
		if len(p.Revisions) > 0 {
			return p.Revisions[0].Timestamp, nil
		}
	}
	return "", nil
}

// SearchTitle resolves a free-form reference to the best-matching canonical
// title via the opensearch endpoint. Returns "" when nothing matches.
func (c *Client) SearchTitle(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("action", "opensearch")
	params.Set("search", query)
	params.Set("limit", "1")
	params.Set("namespace", "0")
	params.Set("format", "json")

	endpoint := c.baseURL + "/w/api.php?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("opensearch: unexpected status %d", resp.StatusCode)
	}

	// Opensearch replies with a positional array: [query, titles, descs, urls].
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", fmt.Errorf("opensearch decode: %w", err)
	}
	if len(raw) < 2 {
		return "", nil
	}
	var titles []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return "", fmt.Errorf("opensearch titles decode: %w", err)
	}
	if len(titles) == 0 {
		return "", nil
	}
	return titles[0], nil
}

// PageURL builds the canonical article URL for a title.
func (c *Client) PageURL(title string) string {
	return c.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	endpoint := c.baseURL + "/w/api.php?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ core.ContentSource = (*Client)(nil)
