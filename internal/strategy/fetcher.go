package strategy

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/extract"
)

// maxBodyBytes caps how much of any fetched page is read.
const maxBodyBytes = 512 * 1024

// Page is a fetched and cleaned web page.
type Page struct {
	URL   string
	Title string
	HTML  string
	Text  string
}

// Fetcher retrieves pages over plain HTTP with a browser-like header
// set. Blocked and error responses surface as errors; callers treat
// them as that single fetch's failure.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
				MaxIdleConnsPerHost: 4,
			},
		},
	}
}

// Fetch retrieves one page, detects anti-bot blocks, and strips the
// HTML to plaintext.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: read body")
	}

	if blocked, blockType := detectBlock(resp, body); blocked {
		return nil, eris.Errorf("fetcher: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("fetcher: status %d", resp.StatusCode)
	}

	if len(body) < 100 {
		return nil, eris.New("fetcher: empty page")
	}

	html := string(body)
	return &Page{
		URL:   targetURL,
		Title: extract.Title(html),
		HTML:  html,
		Text:  extract.StripHTML(html),
	}, nil
}

// blockType describes the kind of anti-bot block detected.
type blockType string

const (
	blockNone       blockType = ""
	blockCloudflare blockType = "cloudflare"
	blockCaptcha    blockType = "captcha"
	blockJSShell    blockType = "js_shell"
)

// detectBlock checks a response for signs of anti-bot protection.
func detectBlock(resp *http.Response, body []byte) (bool, blockType) {
	if resp == nil {
		return false, blockNone
	}

	// Cloudflare: 403/503 with cf-* headers.
	if resp.StatusCode == 403 || resp.StatusCode == 503 {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" {
			return true, blockCloudflare
		}
		if resp.Header.Get("server") == "cloudflare" {
			return true, blockCloudflare
		}
	}

	lower := strings.ToLower(string(body))

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, blockCloudflare
	}

	if strings.Contains(lower, "captcha") ||
		strings.Contains(lower, "recaptcha") ||
		strings.Contains(lower, "hcaptcha") {
		return true, blockCaptcha
	}

	// JS-only shell: very small body with noscript or meta refresh.
	if len(body) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, blockJSShell
		}
		if strings.Contains(lower, "meta http-equiv=\"refresh\"") {
			return true, blockJSShell
		}
	}

	return false, blockNone
}
