// Package emailcheck validates email addresses and ranks guessed
// address permutations for a person when no observed email exists.
package emailcheck

import (
	"context"
	"net"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/model"
)

// Validation reasons.
const (
	ReasonValid         = "valid"
	ReasonInvalidFormat = "invalid format"
	ReasonNoMailRecord  = "domain has no mail record"
)

// Confidence levels for Validate.
const (
	confidenceValid      = 75
	confidenceFormatOnly = 25
)

// cacheTTL bounds repeated MX lookups per domain. Staleness within the
// window is tolerated; entries are overwritten last-write-wins.
const cacheTTL = 24 * time.Hour

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// freeMailDomains are public providers unlikely to host business contacts.
var freeMailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
}

// Resolver looks up mail-exchange records. *net.Resolver satisfies it.
type Resolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

type mxEntry struct {
	reachable bool
	checkedAt time.Time
}

// Checker validates addresses and scores guessed permutations. The MX
// cache is safe for concurrent use across requests.
type Checker struct {
	resolver Resolver
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]mxEntry
}

// Option configures a Checker.
type Option func(*Checker)

// WithResolver sets a custom MX resolver (for testing).
func WithResolver(r Resolver) Option {
	return func(c *Checker) { c.resolver = r }
}

// WithNow sets a fixed clock (for testing cache expiry).
func WithNow(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// New creates a Checker backed by the system resolver.
func New(opts ...Option) *Checker {
	c := &Checker{
		resolver: net.DefaultResolver,
		now:      time.Now,
		cache:    make(map[string]mxEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CheckFormat reports whether the address passes an RFC-lite syntax
// check. Empty input fails closed.
func (c *Checker) CheckFormat(email string) bool {
	if email == "" {
		return false
	}
	return emailRe.MatchString(email)
}

// DomainReachable reports whether the domain resolves a mail-exchange
// record. Lookup failures are indistinguishable from missing records:
// both report unreachable. Results are cached per domain for 24 hours.
func (c *Checker) DomainReachable(ctx context.Context, domain string) bool {
	domain = strings.ToLower(domain)

	c.mu.Lock()
	entry, ok := c.cache[domain]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.checkedAt) < cacheTTL {
		return entry.reachable
	}

	records, err := c.resolver.LookupMX(ctx, domain)
	reachable := err == nil && len(records) > 0
	if err != nil {
		zap.L().Debug("emailcheck: mx lookup failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
	}

	c.mu.Lock()
	c.cache[domain] = mxEntry{reachable: reachable, checkedAt: c.now()}
	c.mu.Unlock()

	return reachable
}

// Validate checks format and domain reachability for one address.
// It never returns an error; a failed DNS lookup downgrades confidence.
func (c *Checker) Validate(ctx context.Context, email string) model.EmailValidation {
	if !c.CheckFormat(email) {
		return model.EmailValidation{IsValid: false, Reason: ReasonInvalidFormat, Confidence: 0}
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if !c.DomainReachable(ctx, domain) {
		return model.EmailValidation{IsValid: false, Reason: ReasonNoMailRecord, Confidence: confidenceFormatOnly}
	}

	return model.EmailValidation{IsValid: true, Reason: ReasonValid, Confidence: confidenceValid}
}

// ScorePattern rates how plausible an email is for a named person at a
// company, 0-100. The weights reward name fragments in the local part
// and a domain that overlaps the company name, and penalize free-mail
// providers.
func (c *Checker) ScorePattern(email, firstName, lastName, company string) int {
	if email == "" || firstName == "" || lastName == "" {
		return 0
	}

	score := 0
	lower := strings.ToLower(email)
	first := strings.ToLower(firstName)
	last := strings.ToLower(lastName)

	at := strings.LastIndex(lower, "@")
	if at < 0 {
		return 0
	}
	local, domain := lower[:at], lower[at+1:]

	if strings.Contains(lower, first) {
		score += 30
	}
	if strings.Contains(lower, last) {
		score += 30
	}

	switch local {
	case first + "." + last:
		score += 25
	case first, first + last:
		score += 20
	}

	if company != "" && domainMatchesCompany(domain, company) {
		score += 15
	}

	if freeMailDomains[domain] {
		score -= 10
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// domainMatchesCompany reports whether the email domain plausibly
// belongs to the company.
func domainMatchesCompany(domain, company string) bool {
	companyWord := nonAlphaRe.ReplaceAllString(strings.ToLower(company), "")
	if companyWord == "" {
		return false
	}
	bare := tldRe.ReplaceAllString(domain, "")
	return strings.Contains(domain, companyWord) || strings.Contains(companyWord, bare)
}

var (
	nonAlphaRe     = regexp.MustCompile(`[^a-z]`)
	nonAlnumRe     = regexp.MustCompile(`[^a-z0-9]`)
	tldRe          = regexp.MustCompile(`\.(com|org|net|io|co)$`)
	corpSuffixRe   = regexp.MustCompile(`(inc|corp|llc|ltd)$`)
	domainShapedRe = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// Candidate is a guessed address with its plausibility score.
type Candidate struct {
	Email   string `json:"email"`
	Score   int    `json:"score"`
	Pattern string `json:"pattern"`
}

// RankCandidates generates the standard permutation set for a person
// and returns it ordered by descending plausibility. companyOrDomain
// may be a bare domain ("acme.com") or a company name, from which a
// .com domain is guessed. Returns nil when no domain can be derived.
func (c *Checker) RankCandidates(firstName, lastName, companyOrDomain string) []Candidate {
	first := nonAlphaRe.ReplaceAllString(strings.ToLower(firstName), "")
	last := nonAlphaRe.ReplaceAllString(strings.ToLower(lastName), "")
	if first == "" || last == "" {
		return nil
	}

	domain := GuessDomain(companyOrDomain)
	if domain == "" {
		return nil
	}

	patterns := []struct {
		name  string
		local string
	}{
		{"first.last", first + "." + last},
		{"first", first},
		{"last", last},
		{"firstlast", first + last},
		{"first_last", first + "_" + last},
		{"flast", first[:1] + last},
		{"firstl", first + last[:1]},
		{"first.l", first + "." + last[:1]},
	}

	candidates := make([]Candidate, 0, len(patterns))
	for _, p := range patterns {
		email := p.local + "@" + domain
		candidates = append(candidates, Candidate{
			Email:   email,
			Score:   c.ScorePattern(email, firstName, lastName, companyOrDomain),
			Pattern: p.name,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// GuessDomain derives an email domain from a company name, or passes a
// value that is already domain-shaped through unchanged (minus any
// www. prefix). Returns "" when nothing usable can be derived.
func GuessDomain(companyOrDomain string) string {
	s := strings.ToLower(strings.TrimSpace(companyOrDomain))
	if s == "" {
		return ""
	}
	s = strings.TrimPrefix(s, "www.")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	if domainShapedRe.MatchString(s) {
		return s
	}
	word := nonAlnumRe.ReplaceAllString(s, "")
	word = corpSuffixRe.ReplaceAllString(word, "")
	if word == "" {
		return ""
	}
	return word + ".com"
}
