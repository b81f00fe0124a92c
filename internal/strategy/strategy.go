// Package strategy implements the contact acquisition channels. Every
// strategy honors the same contract: filters in, raw candidates out,
// and network or parse failures degrade to zero results rather than
// propagating.
package strategy

import (
	"context"
	"strings"

	"github.com/sells-group/prospector/internal/model"
)

// Strategy is one acquisition channel. Discover must treat the limit
// in the filters as a cost bound, not a hard truncation; the caller
// truncates the merged result set.
type Strategy interface {
	Name() string
	Discover(ctx context.Context, filters model.SearchFilters) ([]model.Contact, error)
}

// firstOr returns the first element of a filter list or a default.
func firstOr(values []string, def string) string {
	if len(values) > 0 {
		return values[0]
	}
	return def
}

// buildQuery joins non-empty query terms with single spaces.
func buildQuery(terms ...string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// aggregatorDomains host listings about companies rather than the
// companies themselves. Company-site crawling skips them.
var aggregatorDomains = []string{
	"linkedin.com", "facebook.com", "twitter.com", "x.com",
	"instagram.com", "youtube.com", "wikipedia.org", "yelp.com",
	"yellowpages.com", "bbb.org", "glassdoor.com", "indeed.com",
	"crunchbase.com", "bloomberg.com", "duckduckgo.com",
}

// isAggregator reports whether a URL points at a listing or social
// site rather than a company's own domain.
func isAggregator(rawURL string) bool {
	host := hostOf(rawURL)
	for _, d := range aggregatorDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// hostOf extracts the lowercase host (without www.) from a URL.
func hostOf(rawURL string) string {
	s := strings.ToLower(rawURL)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	return s
}
