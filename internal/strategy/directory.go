package strategy

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospector/internal/extract"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/websearch"
)

// DirectoryStrategy finds companies through business-listing queries
// and extracts contacts from each company's own site.
type DirectoryStrategy struct {
	search    websearch.Client
	fetcher   *Fetcher
	extractor *extract.Extractor
	limiter   *rate.Limiter
	maxSites  int
}

// NewDirectoryStrategy creates a DirectoryStrategy.
func NewDirectoryStrategy(search websearch.Client, fetcher *Fetcher, extractor *extract.Extractor, searchRate float64, maxSites int) *DirectoryStrategy {
	if searchRate <= 0 {
		searchRate = 1
	}
	if maxSites <= 0 {
		maxSites = 5
	}
	return &DirectoryStrategy{
		search:    search,
		fetcher:   fetcher,
		extractor: extractor,
		limiter:   rate.NewLimiter(rate.Limit(searchRate), 1),
		maxSites:  maxSites,
	}
}

func (s *DirectoryStrategy) Name() string { return "directory" }

// Discover queries business listings, then extracts contacts from the
// listed companies' sites. Per-site failures are logged and skipped.
func (s *DirectoryStrategy) Discover(ctx context.Context, filters model.SearchFilters) ([]model.Contact, error) {
	log := zap.L().With(zap.String("strategy", s.Name()))

	industry := firstOr(filters.Industries, "business")
	query := buildQuery(industry, "companies", filters.Location, filters.Keywords, "contact")

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "directory: rate limit wait")
	}
	results, err := s.search.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "directory: search")
	}
	log.Debug("listing search complete", zap.String("query", query), zap.Int("results", len(results)))

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

		page, err := s.fetcher.Fetch(ctx, r.URL)
		if err != nil {
			log.Debug("site fetch failed", zap.String("url", r.URL), zap.Error(err))
			continue
		}

		found := s.extractor.Extract(page.Text+"\n"+r.Snippet, extract.Context{
			URL:      r.URL,
			Domain:   hostOf(r.URL),
			Industry: industry,
			Location: filters.Location,
		})
		for i := range found {
			found[i].Source = model.SourceDirectory
		}
		contacts = append(contacts, found...)
	}

	log.Info("directory discovery complete",
		zap.Int("sites", sites),
		zap.Int("contacts", len(contacts)),
	)
	return contacts, nil
}
