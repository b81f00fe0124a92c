package strategy

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospector/internal/extract"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/websearch"
)

// teamLinkWords is the anchor-text vocabulary for pages likely to list
// people.
var teamLinkWords = []string{"team", "about", "leadership", "staff", "contact", "people"}

var anchorHrefRe = regexp.MustCompile(`(?is)<a[^>]+href="([^"]+)"[^>]*>(.*?)</a>`)

// CompanySiteStrategy discovers company websites through web search
// and crawls each site's root plus its team-flavored pages.
type CompanySiteStrategy struct {
	search          websearch.Client
	fetcher         *Fetcher
	extractor       *extract.Extractor
	limiter         *rate.Limiter
	maxSites        int
	maxPagesPerSite int
}

// NewCompanySiteStrategy creates a CompanySiteStrategy.
func NewCompanySiteStrategy(search websearch.Client, fetcher *Fetcher, extractor *extract.Extractor, searchRate float64, maxSites, maxPagesPerSite int) *CompanySiteStrategy {
	if searchRate <= 0 {
		searchRate = 1
	}
	if maxSites <= 0 {
		maxSites = 5
	}
	if maxPagesPerSite <= 0 {
		maxPagesPerSite = 5
	}
	return &CompanySiteStrategy{
		search:          search,
		fetcher:         fetcher,
		extractor:       extractor,
		limiter:         rate.NewLimiter(rate.Limit(searchRate), 1),
		maxSites:        maxSites,
		maxPagesPerSite: maxPagesPerSite,
	}
}

func (s *CompanySiteStrategy) Name() string { return "company-site" }

// Discover searches for company sites and crawls each site's root
// page plus up to maxPagesPerSite team-flavored pages. Sites are
// crawled sequentially; pages within a site fetch concurrently.
func (s *CompanySiteStrategy) Discover(ctx context.Context, filters model.SearchFilters) ([]model.Contact, error) {
	log := zap.L().With(zap.String("strategy", s.Name()))

	industry := firstOr(filters.Industries, "business")
	query := buildQuery(industry, "company", filters.Location, filters.Keywords)

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "companysite: rate limit wait")
	}
	results, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "companysite: search")
	}

	var contacts []model.Contact
	sites := 0
	for _, r := range results {
		if sites >= s.maxSites || len(contacts) >= filters.Limit {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if isAggregator(r.URL) {
			continue
		}
		sites++

		found := s.crawlSite(ctx, r.URL, extract.Context{
			URL:      r.URL,
			Domain:   hostOf(r.URL),
			Industry: industry,
			Location: filters.Location,
		})
		contacts = append(contacts, found...)
	}

	log.Info("company-site discovery complete",
		zap.Int("sites", sites),
		zap.Int("contacts", len(contacts)),
	)
	return contacts, nil
}

// crawlSite fetches the root page, follows team-flavored links, and
// extracts contacts from every page that loads. Failures within one
// site never fail the site.
func (s *CompanySiteStrategy) crawlSite(ctx context.Context, siteURL string, ectx extract.Context) []model.Contact {
	log := zap.L().With(zap.String("strategy", s.Name()), zap.String("site", siteURL))

	root, err := s.fetcher.Fetch(ctx, siteURL)
	if err != nil {
		log.Debug("root fetch failed", zap.Error(err))
		return nil
	}

	contacts := s.extractor.Extract(root.Text, ectx)

	links := teamLinks(root.HTML, siteURL)
	if len(links) > s.maxPagesPerSite-1 {
		links = links[:s.maxPagesPerSite-1]
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, link := range links {
		g.Go(func() error {
			page, err := s.fetcher.Fetch(gctx, link)
			if err != nil {
				log.Debug("page fetch failed", zap.String("url", link), zap.Error(err))
				return nil
			}
			pctx := ectx
			pctx.URL = link
			found := s.extractor.Extract(page.Text, pctx)
			mu.Lock()
			contacts = append(contacts, found...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i := range contacts {
		contacts[i].Source = model.SourceCompanySite
	}
	return contacts
}

// teamLinks extracts same-site links whose anchor text or path hints
// at a people-listing page, resolved to absolute URLs, deduplicated,
// in document order.
func teamLinks(html, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := map[string]bool{strings.TrimRight(baseURL, "/"): true}
	var links []string
	for _, m := range anchorHrefRe.FindAllStringSubmatch(html, -1) {
		href, text := m[1], strings.ToLower(m[2])
		if !mentionsTeam(strings.ToLower(href)) && !mentionsTeam(text) {
			continue
		}

		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		if abs.Host != base.Host {
			continue
		}
		abs.Fragment = ""

		key := strings.TrimRight(abs.String(), "/")
		if seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, abs.String())
	}
	return links
}

func mentionsTeam(s string) bool {
	for _, w := range teamLinkWords {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
