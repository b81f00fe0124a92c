// Package websearch provides a client for HTML web search over the
// DuckDuckGo html endpoint. Results come back as plain title/URL/snippet
// triples; callers decide what counts as a useful hit.
package websearch

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Client defines the web-search operations used by the strategies.
type Client interface {
	// Search runs one query and returns parsed results. A query with
	// no hits returns an empty slice, not an error.
	Search(ctx context.Context, query string) ([]Result, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom endpoint (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithMaxResults caps parsed results per query.
func WithMaxResults(n int) Option {
	return func(c *httpClient) { c.maxResults = n }
}

type httpClient struct {
	baseURL    string
	maxResults int
	http       *http.Client
}

// NewClient creates a web-search client with browser-like headers and
// a 15s per-request timeout.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:    "https://html.duckduckgo.com/html/",
		maxResults: 20,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryDo executes a request with exponential backoff on transient
// failures (429, 500, 502, 503).
func (c *httpClient) retryDo(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, 0, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, 0, lastErr
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, resp.StatusCode, eris.Wrap(readErr, "websearch: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("websearch: status %d", resp.StatusCode)
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, resp.StatusCode, nil
	}

	return nil, 0, lastErr
}

func (c *httpClient) Search(ctx context.Context, query string) ([]Result, error) {
	reqURL := c.baseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: create request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	body, statusCode, err := c.retryDo(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "websearch: request failed")
	}
	if statusCode != http.StatusOK {
		return nil, eris.Errorf("websearch: unexpected status %d", statusCode)
	}

	return parseResults(string(body), c.maxResults), nil
}

var (
	anchorRe  = regexp.MustCompile(`(?is)<a[^>]+class="[^"]*result__a[^"]*"[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)
	snippetRe = regexp.MustCompile(`(?is)<a[^>]+class="[^"]*result__snippet[^"]*"[^>]*>(.*?)</a>`)
	stripRe   = regexp.MustCompile(`<[^>]+>`)
	uddgRe    = regexp.MustCompile(`uddg=([^&"]+)`)
)

// parseResults extracts result anchors and pairs them with snippets by
// position. Redirect-wrapped links are decoded to their targets.
func parseResults(page string, limit int) []Result {
	anchors := anchorRe.FindAllStringSubmatch(page, -1)
	snippets := snippetRe.FindAllStringSubmatch(page, -1)

	results := make([]Result, 0, len(anchors))
	seen := make(map[string]bool)
	for i, m := range anchors {
		if limit > 0 && len(results) >= limit {
			break
		}
		target := DecodeRedirect(html.UnescapeString(m[1]))
		if target == "" || seen[target] {
			continue
		}
		seen[target] = true

		r := Result{
			Title: cleanText(m[2]),
			URL:   target,
		}
		if i < len(snippets) {
			r.Snippet = cleanText(snippets[i][1])
		}
		results = append(results, r)
	}
	return results
}

// DecodeRedirect unwraps a result-page redirect link ("uddg=" style)
// to its target URL. Non-redirect links pass through; relative links
// and unparseable targets return "".
func DecodeRedirect(href string) string {
	if m := uddgRe.FindStringSubmatch(href); len(m) > 1 {
		if decoded, err := url.QueryUnescape(m[1]); err == nil {
			href = decoded
		}
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return ""
	}
	return href
}

func cleanText(s string) string {
	s = stripRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
