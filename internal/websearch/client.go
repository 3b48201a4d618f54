// Package websearch queries a SearXNG-style metasearch instance and turns
// the top results into a compact text summary for prompt context.
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
)

// Search errors.
var (
	ErrMissingCredential = errors.New("web search credential missing or placeholder")
	ErrProvider          = errors.New("search provider returned an error")
	ErrNetwork           = errors.New("search request failed")
)

const (
	// MaxResults caps how many results feed the summary.
	MaxResults = 3

	// PlaceholderCredential is the sample value shipped in example config;
	// it is treated the same as no credential at all.
	PlaceholderCredential = "changeme"

	// maxBodySize bounds provider responses.
	maxBodySize = 2 << 20
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"content"`
}

// Searcher is the consumer-side interface; the composer depends on this,
// not on the concrete client.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// Client talks to one SearXNG instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpc      *http.Client
	limiter    *rate.Limiter
	maxResults int
	logger     log.Logger
}

// NewClient creates a search client for the given instance. Requests are
// rate limited to stay within typical public-instance budgets.
func NewClient(baseURL, apiKey string, logger log.Logger) *Client {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpc:      &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		maxResults: MaxResults,
		logger:     logger,
	}
}

// Search runs one query and returns at most MaxResults hits.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	if c.apiKey == "" || c.apiKey == PlaceholderCredential {
		return nil, ErrMissingCredential
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	results, err := c.searchJSON(ctx, query)
	if errors.Is(err, errJSONForbidden) {
		// Instances with the JSON format disabled answer 403; fall back
		// to scraping the HTML results page.
		c.logger.Debug("json endpoint forbidden, falling back to html", "query", query)
		results, err = c.searchHTML(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}
	c.logger.Debug("web search completed", "query", query, "results", len(results))
	return results, nil
}

// errJSONForbidden signals internally that the JSON endpoint answered 403.
var errJSONForbidden = errors.New("json format forbidden")

func (c *Client) searchJSON(ctx context.Context, query string) ([]Result, error) {
	body, status, err := c.get(ctx, query, "json")
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusForbidden:
		return nil, errJSONForbidden
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrProvider, status)
	}

	var payload struct {
		Results []Result `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding results: %w", ErrProvider, err)
	}
	return payload.Results, nil
}

func (c *Client) searchHTML(ctx context.Context, query string) ([]Result, error) {
	body, status, err := c.get(ctx, query, "")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrProvider, status)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing results page: %w", ErrProvider, err)
	}

	var results []Result
	doc.Find("article.result").Each(func(_ int, sel *goquery.Selection) {
		link := sel.Find("h3 a").First()
		href, _ := link.Attr("href")
		results = append(results, Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     href,
			Snippet: strings.TrimSpace(sel.Find("p.content").First().Text()),
		})
	})
	return results, nil
}

// get performs one provider request. format selects the response format
// query parameter; empty means the default HTML page.
func (c *Client) get(ctx context.Context, query, format string) ([]byte, int, error) {
	params := url.Values{}
	params.Set("q", query)
	if format != "" {
		params.Set("format", format)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json, text/html")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: reading response: %w", ErrNetwork, err)
	}
	return body, resp.StatusCode, nil
}

// Summary renders results as a numbered plain-text block for inclusion in
// a system prompt.
func Summary(results []Result) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "%d. %s", i+1, r.Title)
		if r.Snippet != "" {
			b.WriteString("\n")
			b.WriteString(r.Snippet)
		}
		if r.URL != "" {
			b.WriteString("\nSource: ")
			b.WriteString(r.URL)
		}
	}
	return b.String()
}
