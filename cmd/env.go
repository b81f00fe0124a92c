package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospector/internal/discover"
	"github.com/sells-group/prospector/internal/emailcheck"
	"github.com/sells-group/prospector/internal/extract"
	"github.com/sells-group/prospector/internal/insight"
	"github.com/sells-group/prospector/internal/store"
	"github.com/sells-group/prospector/internal/strategy"
	"github.com/sells-group/prospector/internal/synth"
	"github.com/sells-group/prospector/pkg/anthropic"
	"github.com/sells-group/prospector/pkg/websearch"
)

// env wires the pipeline components for one process.
type env struct {
	Orchestrator *discover.Orchestrator
	Insights     *insight.Generator
	Store        store.Store
}

// initEnv builds the discovery pipeline from config. withStore opens
// and migrates the persistence backend; CLI commands that never
// persist skip it.
func initEnv(ctx context.Context, withStore bool) (*env, error) {
	checker := emailcheck.New()
	extractor := extract.New(checker)

	search := websearch.NewClient(
		websearch.WithBaseURL(cfg.Search.BaseURL),
		websearch.WithMaxResults(cfg.Search.MaxResults),
	)
	fetcher := strategy.NewFetcher(time.Duration(cfg.Discover.FetchTimeout) * time.Second)

	strategies := []strategy.Strategy{
		strategy.NewDirectoryStrategy(search, fetcher, extractor, cfg.Discover.SearchRateLimit, cfg.Discover.MaxSites),
		strategy.NewNetworkStrategy(search, extractor, cfg.Discover.SearchRateLimit),
		strategy.NewCompanySiteStrategy(search, fetcher, extractor, cfg.Discover.SearchRateLimit, cfg.Discover.MaxSites, cfg.Discover.MaxPagesPerSite),
	}

	var (
		synthGen   discover.Synthesizer
		insightGen *insight.Generator
	)
	if cfg.Anthropic.Key != "" {
		client := anthropic.NewClient(cfg.Anthropic.Key)
		synthGen = synth.NewGenerator(client, cfg.Anthropic.HaikuModel)
		insightGen = insight.NewGenerator(client, cfg.Anthropic.SonnetModel)
	}

	e := &env{
		Orchestrator: discover.New(strategies, checker, synthGen),
		Insights:     insightGen,
	}

	if withStore {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		e.Store = st
	}

	return e, nil
}

// Close releases held resources.
func (e *env) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// discoverTimeout bounds one full discovery request.
func discoverTimeout() time.Duration {
	secs := 120
	if cfg != nil && cfg.Discover.TimeoutSecs > 0 {
		secs = cfg.Discover.TimeoutSecs
	}
	return time.Duration(secs) * time.Second
}
