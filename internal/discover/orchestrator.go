// Package discover coordinates the acquisition strategies into one
// ranked prospect list. A discovery request never returns empty: real
// results fall back to generated ones, and generated ones fall back to
// embedded demo records.
package discover

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/emailcheck"
	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/strategy"
	"github.com/sells-group/prospector/internal/synth"
)

// Composite score weights. These are calibration defaults, not a
// correctness contract; the invariant is only that senior roles and
// validated emails rank higher.
const (
	scoreBase          = 50
	emailWeight        = 0.3
	seniorRoleBonus    = 20
	websiteBonus       = 10
	networkSourceBonus = 15
	strategyWeight     = 0.2
	scoreMin           = 20
	scoreMax           = 100
)

// seniorRoleKeywords mark positions that earn the seniority bonus.
var seniorRoleKeywords = []string{
	"ceo", "cto", "cfo", "president", "director", "vp", "vice president",
}

// placeholderHosts never count as a real company website.
var placeholderHosts = map[string]bool{
	"example.com": true, "test.com": true,
	"domain.com": true, "yoursite.com": true,
}

// Synthesizer is the generated-prospect fallback. *synth.Generator
// satisfies it.
type Synthesizer interface {
	Generate(ctx context.Context, filters model.SearchFilters, n int) ([]model.Prospect, error)
}

// Orchestrator runs the discovery pipeline for one request at a time.
// It owns all post-acquisition mutation: dedup, validation, scoring,
// ranking, and the fallback chain.
type Orchestrator struct {
	strategies []strategy.Strategy
	checker    *emailcheck.Checker
	synth      Synthesizer
}

// New creates an Orchestrator. Strategies run in the given order and
// short-circuit at the first non-empty result.
func New(strategies []strategy.Strategy, checker *emailcheck.Checker, synthesizer Synthesizer) *Orchestrator {
	return &Orchestrator{
		strategies: strategies,
		checker:    checker,
		synth:      synthesizer,
	}
}

// Discover runs the full pipeline: acquire, dedup, validate, score,
// rank, fall back, truncate. The returned error is reserved for
// fallback-chain exhaustion and should not occur in practice.
func (o *Orchestrator) Discover(ctx context.Context, filters model.SearchFilters) ([]model.Prospect, model.DiscoveryMeta, error) {
	filters = filters.Normalize()
	log := zap.L().With(zap.Int("limit", filters.Limit))

	contacts := o.acquire(ctx, filters)
	contacts = dedup(contacts)

	prospects := make([]model.Prospect, 0, len(contacts))
	for _, c := range contacts {
		prospects = append(prospects, o.validate(ctx, c))
	}
	for i := range prospects {
		prospects[i].Score = scoreProspect(prospects[i])
	}

	sort.SliceStable(prospects, func(i, j int) bool {
		return prospects[i].Score > prospects[j].Score
	})

	generated := false
	if len(prospects) == 0 {
		prospects = o.fallback(ctx, filters)
		generated = true
		for i := range prospects {
			prospects[i].Score = scoreProspect(prospects[i])
		}
	}

	if len(prospects) > filters.Limit {
		prospects = prospects[:filters.Limit]
	}

	meta := model.DiscoveryMeta{
		Total:     len(prospects),
		NewCount:  len(prospects),
		Generated: generated,
		Timestamp: time.Now().UTC(),
	}

	log.Info("discovery complete",
		zap.Int("prospects", len(prospects)),
		zap.Bool("generated", generated),
	)
	return prospects, meta, nil
}

// acquire tries each strategy in order and keeps the first non-empty
// result set. Strategy errors degrade to zero yield.
func (o *Orchestrator) acquire(ctx context.Context, filters model.SearchFilters) []model.Contact {
	for _, s := range o.strategies {
		if ctx.Err() != nil {
			return nil
		}

		contacts, err := s.Discover(ctx, filters)
		if err != nil {
			zap.L().Warn("strategy failed",
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			continue
		}
		if len(contacts) > 0 {
			zap.L().Debug("strategy yielded contacts",
				zap.String("strategy", s.Name()),
				zap.Int("count", len(contacts)),
			)
			return contacts
		}
	}
	return nil
}

// dedup collapses duplicates, first occurrence wins. The key is the
// normalized email when present, else the name+company triple.
func dedup(contacts []model.Contact) []model.Contact {
	seen := make(map[string]bool, len(contacts))
	out := contacts[:0]
	for _, c := range contacts {
		key := dedupKey(c)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func dedupKey(c model.Contact) string {
	if email := strings.ToLower(strings.TrimSpace(c.Email)); email != "" {
		return "e:" + email
	}
	return "n:" + strings.ToLower(c.FirstName) + "|" + strings.ToLower(c.LastName) + "|" + strings.ToLower(c.Company)
}

// validate checks the contact's email and upgrades to the best valid
// alternative when the primary fails.
func (o *Orchestrator) validate(ctx context.Context, c model.Contact) model.Prospect {
	p := model.Prospect{Contact: c}
	if c.Email == "" && len(c.AltEmails) == 0 {
		p.EmailValidation = model.EmailValidation{Reason: emailcheck.ReasonInvalidFormat}
		return p
	}

	v := o.checker.Validate(ctx, c.Email)
	if !v.IsValid {
		for _, alt := range c.AltEmails {
			altV := o.checker.Validate(ctx, alt)
			if altV.IsValid {
				p.Email = alt
				v = altV
				break
			}
		}
	}

	p.EmailValidation = v
	p.Validated = v.IsValid
	return p
}

// scoreProspect computes the composite ranking score.
func scoreProspect(p model.Prospect) int {
	score := float64(scoreBase)
	score += emailWeight * float64(p.EmailValidation.Confidence)

	if hasSeniorRole(p.Position) {
		score += seniorRoleBonus
	}
	if hasRealWebsite(p.Website) {
		score += websiteBonus
	}
	if p.Source == model.SourceWebSearch {
		score += networkSourceBonus
	}
	score += strategyWeight * float64(p.Confidence)

	s := int(score)
	if s < scoreMin {
		s = scoreMin
	}
	if s > scoreMax {
		s = scoreMax
	}
	return s
}

func hasSeniorRole(position string) bool {
	lower := strings.ToLower(position)
	for _, kw := range seniorRoleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func hasRealWebsite(website string) bool {
	if website == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(website), "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "www.")
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	return !placeholderHosts[host]
}

// fallback fills an empty result set: generated prospects first, then
// embedded demo records. The static floor cannot fail.
func (o *Orchestrator) fallback(ctx context.Context, filters model.SearchFilters) []model.Prospect {
	if o.synth != nil {
		prospects, err := o.synth.Generate(ctx, filters, filters.Limit)
		if err == nil && len(prospects) > 0 {
			return prospects
		}
		if err != nil {
			zap.L().Warn("synthetic generation failed, serving demo records", zap.Error(err))
		}
	}
	return synth.StaticProspects(filters, filters.Limit)
}
