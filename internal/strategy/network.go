package strategy

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospector/internal/extract"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/websearch"
)

// maxQueriesPerRequest bounds how many position-scoped searches one
// discovery request may issue.
const maxQueriesPerRequest = 3

// NetworkStrategy searches the open web for professional-network
// profile URLs and derives contacts from the profile slugs plus any
// snippet text.
type NetworkStrategy struct {
	search    websearch.Client
	extractor *extract.Extractor
	limiter   *rate.Limiter
}

// NewNetworkStrategy creates a NetworkStrategy.
func NewNetworkStrategy(search websearch.Client, extractor *extract.Extractor, searchRate float64) *NetworkStrategy {
	if searchRate <= 0 {
		searchRate = 1
	}
	return &NetworkStrategy{
		search:    search,
		extractor: extractor,
		limiter:   rate.NewLimiter(rate.Limit(searchRate), 1),
	}
}

func (s *NetworkStrategy) Name() string { return "network" }

// Discover issues one profile-scoped query per requested position and
// keeps every result whose URL is profile-shaped.
func (s *NetworkStrategy) Discover(ctx context.Context, filters model.SearchFilters) ([]model.Contact, error) {
	log := zap.L().With(zap.String("strategy", s.Name()))

	positions := filters.Positions
	if len(positions) == 0 {
		positions = []string{"CEO", "Founder"}
	}
	if len(positions) > maxQueriesPerRequest {
		positions = positions[:maxQueriesPerRequest]
	}
	industry := firstOr(filters.Industries, "")

	var contacts []model.Contact
	seen := make(map[string]bool)

	for _, position := range positions {
		if len(contacts) >= filters.Limit {
			break
		}
		if ctx.Err() != nil {
			break
		}

		query := buildQuery(`site:linkedin.com/in/`, `"`+position+`"`, industry, filters.Location, filters.Keywords)
		if err := s.limiter.Wait(ctx); err != nil {
			return contacts, eris.Wrap(err, "network: rate limit wait")
		}
		results, err := s.search.Search(ctx, query)
		if err != nil {
			log.Debug("profile search failed", zap.String("query", query), zap.Error(err))
			continue
		}

		for _, r := range results {
			if len(contacts) >= filters.Limit {
				break
			}
			if !isProfileURL(r.URL) || seen[r.URL] {
				continue
			}
			seen[r.URL] = true

			c := s.extractor.FromProfileURL(r.URL, r.Title+" "+r.Snippet, extract.Context{
				URL:      r.URL,
				Industry: industry,
				Location: filters.Location,
			})
			if c == nil {
				continue
			}
			c.Source = model.SourceWebSearch
			if c.Position == "Professional" {
				c.Position = position
			}
			contacts = append(contacts, *c)
		}
	}

	log.Info("network discovery complete", zap.Int("contacts", len(contacts)))
	return contacts, nil
}

// isProfileURL reports whether a URL is a personal-profile path.
func isProfileURL(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), "linkedin.com/in/")
}
