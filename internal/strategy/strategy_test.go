package strategy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/emailcheck"
	"github.com/sells-group/prospector/internal/extract"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/websearch"
)

type mockSearch struct {
	results map[string][]websearch.Result
	fall    []websearch.Result
	err     error
	queries []string
}

func (m *mockSearch) Search(_ context.Context, query string) ([]websearch.Result, error) {
	m.queries = append(m.queries, query)
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.results[query]; ok {
		return r, nil
	}
	return m.fall, nil
}

func newTestExtractor() *extract.Extractor {
	return extract.New(emailcheck.New()).WithRand(func(int) int { return 0 })
}

func TestDirectoryStrategy_Discover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(teamPageHTML))
	}))
	defer srv.Close()

	search := &mockSearch{fall: []websearch.Result{
		{Title: "Acme Corp", URL: srv.URL, Snippet: "Leading widget maker"},
		{Title: "Yelp listing", URL: "https://www.yelp.com/biz/acme", Snippet: "reviews"},
	}}

	s := NewDirectoryStrategy(search, NewFetcher(5*time.Second), newTestExtractor(), 100, 5)
	contacts, err := s.Discover(context.Background(), model.SearchFilters{
		Industries: []string{"manufacturing"},
		Location:   "Austin",
		Limit:      10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, contacts)

	assert.Equal(t, "Jane", contacts[0].FirstName)
	assert.Equal(t, model.SourceDirectory, contacts[0].Source)
	assert.Contains(t, search.queries[0], "manufacturing")
	assert.Contains(t, search.queries[0], "Austin")
}

func TestDirectoryStrategy_SearchFailure(t *testing.T) {
	search := &mockSearch{err: eris.New("engine down")}
	s := NewDirectoryStrategy(search, NewFetcher(time.Second), newTestExtractor(), 100, 5)

	_, err := s.Discover(context.Background(), model.SearchFilters{Limit: 10})
	assert.Error(t, err)
}

func TestNetworkStrategy_Discover(t *testing.T) {
	search := &mockSearch{fall: []websearch.Result{
		{
			Title:   "Jane Doe - CEO at Acme Inc",
			URL:     "https://www.linkedin.com/in/jane-doe-1a2b3c",
			Snippet: "CEO at Acme Inc · Austin, Texas",
		},
		{Title: "Acme company page", URL: "https://www.linkedin.com/company/acme", Snippet: ""},
		{
			Title:   "Jane Doe - CEO at Acme Inc",
			URL:     "https://www.linkedin.com/in/jane-doe-1a2b3c",
			Snippet: "duplicate result",
		},
	}}

	s := NewNetworkStrategy(search, newTestExtractor(), 100)
	contacts, err := s.Discover(context.Background(), model.SearchFilters{
		Positions: []string{"CEO"},
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, contacts, 1, "company pages and duplicate profiles are skipped")

	c := contacts[0]
	assert.Equal(t, "Jane", c.FirstName)
	assert.Equal(t, "Doe", c.LastName)
	assert.Equal(t, model.SourceWebSearch, c.Source)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe-1a2b3c", c.LinkedInURL)
	assert.Contains(t, search.queries[0], "site:linkedin.com/in/")
	assert.Contains(t, search.queries[0], `"CEO"`)
}

func TestNetworkStrategy_SearchFailureDegradesToEmpty(t *testing.T) {
	search := &mockSearch{err: eris.New("engine down")}
	s := NewNetworkStrategy(search, newTestExtractor(), 100)

	contacts, err := s.Discover(context.Background(), model.SearchFilters{Limit: 5})
	assert.NoError(t, err, "per-query failures are swallowed")
	assert.Empty(t, contacts)
}

func TestNetworkStrategy_RespectsLimit(t *testing.T) {
	var results []websearch.Result
	slugs := []string{"amy-adams", "bob-brown", "carl-cole", "dana-dunn"}
	for _, slug := range slugs {
		results = append(results, websearch.Result{
			URL:     "https://www.linkedin.com/in/" + slug,
			Title:   "Profile",
			Snippet: "",
		})
	}
	search := &mockSearch{fall: results}

	s := NewNetworkStrategy(search, newTestExtractor(), 100)
	contacts, err := s.Discover(context.Background(), model.SearchFilters{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestCompanySiteStrategy_CrawlsTeamPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/team" {
			_, _ = w.Write([]byte(`<html><head><title>Acme | Team</title></head><body>
				<p>Mark Webb, CTO of Acme Corp, runs engineering and platform operations here.</p>
				</body></html>`))
			return
		}
		_, _ = w.Write([]byte(`<html><head><title>Acme | Home</title></head><body>
			<a href="/team">Meet the Team</a>
			<a href="/pricing">Pricing</a>
			<p>Acme Corp builds widgets for the industrial sector across the region.</p>
			</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	search := &mockSearch{fall: []websearch.Result{{Title: "Acme", URL: srv.URL, Snippet: ""}}}
	s := NewCompanySiteStrategy(search, NewFetcher(5*time.Second), newTestExtractor(), 100, 5, 5)

	contacts, err := s.Discover(context.Background(), model.SearchFilters{Limit: 10})
	require.NoError(t, err)
	require.NotEmpty(t, contacts)

	var found bool
	for _, c := range contacts {
		assert.Equal(t, model.SourceCompanySite, c.Source)
		if c.FirstName == "Mark" && c.Position == "CTO" {
			found = true
		}
	}
	assert.True(t, found, "contact from the team page is extracted")
}

func TestTeamLinks(t *testing.T) {
	html := `<a href="/team">Team</a>
		<a href="/about-us">About</a>
		<a href="https://other.com/team">External team</a>
		<a href="/pricing">Pricing</a>
		<a href="/team">Team again</a>
		<a href="mailto:info@acme.com">Contact us</a>`

	links := teamLinks(html, "https://acme.com")
	assert.Equal(t, []string{"https://acme.com/team", "https://acme.com/about-us"}, links)
}

func TestIsAggregator(t *testing.T) {
	assert.True(t, isAggregator("https://www.linkedin.com/company/acme"))
	assert.True(t, isAggregator("https://yelp.com/biz/acme"))
	assert.False(t, isAggregator("https://acme.com"))
	assert.False(t, isAggregator("https://notlinkedin.company.com"))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "acme.com", hostOf("https://www.acme.com/about?x=1"))
	assert.Equal(t, "acme.com", hostOf("http://acme.com:8080/"))
	assert.Equal(t, "acme.com", hostOf("acme.com"))
}
