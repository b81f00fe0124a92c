package emailcheck

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	records []*net.MX
	err     error
	calls   int
}

func (s *stubResolver) LookupMX(_ context.Context, _ string) ([]*net.MX, error) {
	s.calls++
	return s.records, s.err
}

func TestCheckFormat(t *testing.T) {
	c := New()

	valid := []string{
		"jane.doe@acme.com",
		"j@a.co",
		"first_last+tag@sub.domain.org",
	}
	for _, email := range valid {
		assert.True(t, c.CheckFormat(email), email)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"@acme.com",
		"jane@",
		"jane@acme",
		"jane doe@acme.com",
	}
	for _, email := range invalid {
		assert.False(t, c.CheckFormat(email), email)
	}
}

func TestValidate_Valid(t *testing.T) {
	resolver := &stubResolver{records: []*net.MX{{Host: "mx.acme.com"}}}
	c := New(WithResolver(resolver))

	v := c.Validate(context.Background(), "jane@acme.com")
	assert.True(t, v.IsValid)
	assert.Equal(t, ReasonValid, v.Reason)
	assert.Equal(t, 75, v.Confidence)
}

func TestValidate_NoMailRecord(t *testing.T) {
	resolver := &stubResolver{}
	c := New(WithResolver(resolver))

	v := c.Validate(context.Background(), "jane@acme.com")
	assert.False(t, v.IsValid)
	assert.Equal(t, ReasonNoMailRecord, v.Reason)
	assert.Equal(t, 25, v.Confidence)
}

func TestValidate_InvalidFormat(t *testing.T) {
	resolver := &stubResolver{records: []*net.MX{{Host: "mx.acme.com"}}}
	c := New(WithResolver(resolver))

	v := c.Validate(context.Background(), "not-an-email")
	assert.False(t, v.IsValid)
	assert.Equal(t, ReasonInvalidFormat, v.Reason)
	assert.Equal(t, 0, v.Confidence)
	assert.Zero(t, resolver.calls, "format failure must not hit DNS")
}

func TestValidate_DNSErrorIsUnreachable(t *testing.T) {
	resolver := &stubResolver{err: eris.New("dns timeout")}
	c := New(WithResolver(resolver))

	v := c.Validate(context.Background(), "jane@acme.com")
	assert.False(t, v.IsValid)
	assert.Equal(t, ReasonNoMailRecord, v.Reason)
}

func TestDomainReachable_Cache(t *testing.T) {
	resolver := &stubResolver{records: []*net.MX{{Host: "mx.acme.com"}}}
	now := time.Now()
	c := New(WithResolver(resolver), WithNow(func() time.Time { return now }))

	assert.True(t, c.DomainReachable(context.Background(), "acme.com"))
	assert.True(t, c.DomainReachable(context.Background(), "ACME.com"))
	assert.Equal(t, 1, resolver.calls, "second lookup within TTL must be cached")

	// Advance past the TTL and the resolver is consulted again.
	now = now.Add(cacheTTL + time.Minute)
	assert.True(t, c.DomainReachable(context.Background(), "acme.com"))
	assert.Equal(t, 2, resolver.calls)
}

func TestScorePattern(t *testing.T) {
	c := New()

	tests := []struct {
		name  string
		email string
		want  int
	}{
		{"first.last with company domain", "jane.doe@acme.com", 100},
		{"firstlast", "janedoe@acme.com", 95},
		{"first only", "jane@acme.com", 65},
		{"last only", "doe@acme.com", 45},
		{"free mail penalty", "jane.doe@gmail.com", 75},
		{"unrelated", "bob@other.org", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.ScorePattern(tt.email, "Jane", "Doe", "Acme"))
		})
	}

	assert.Equal(t, 0, c.ScorePattern("", "Jane", "Doe", "Acme"))
	assert.Equal(t, 0, c.ScorePattern("jane@acme.com", "", "Doe", "Acme"))
}

func TestRankCandidates_Determinism(t *testing.T) {
	c := New()

	ranked := c.RankCandidates("Jane", "Doe", "acme.com")
	require.Len(t, ranked, 8)

	assert.Equal(t, "jane.doe@acme.com", ranked[0].Email)
	assert.Equal(t, "first.last", ranked[0].Pattern)
	assert.Equal(t, "janedoe@acme.com", ranked[1].Email)

	// Scores are non-increasing.
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}

	// Same inputs, same order.
	again := c.RankCandidates("Jane", "Doe", "acme.com")
	assert.Equal(t, ranked, again)
}

func TestRankCandidates_Unusable(t *testing.T) {
	c := New()

	assert.Nil(t, c.RankCandidates("", "Doe", "acme.com"))
	assert.Nil(t, c.RankCandidates("Jane", "Doe", ""))
}

func TestGuessDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"acme.com", "acme.com"},
		{"www.acme.com", "acme.com"},
		{"acme.com/about", "acme.com"},
		{"Acme Corp", "acme.com"},
		{"Acme Inc", "acme.com"},
		{"Blue Sky Solutions LLC", "blueskysolutions.com"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GuessDomain(tt.in), tt.in)
	}
}
