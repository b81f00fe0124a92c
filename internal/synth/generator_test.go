package synth

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/anthropic"
)

type mockClient struct {
	resp    *anthropic.MessageResponse
	err     error
	lastReq anthropic.MessageRequest
}

func (m *mockClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func TestGenerate(t *testing.T) {
	client := &mockClient{resp: textResponse(`Here are your records:
[
  {"first_name": "Faye", "last_name": "Kerr", "company": "Made Up Inc", "position": "CEO",
   "industry": "Technology", "location": "Austin, TX", "email": "Faye.Kerr@madeup.com",
   "website": "https://madeup.com", "confidence": 72},
  {"first_name": "", "last_name": "", "company": "", "position": "", "confidence": 0}
]`)}

	g := NewGenerator(client, "claude-haiku-4-5-20251001")
	prospects, err := g.Generate(context.Background(), model.SearchFilters{
		Industries: []string{"Technology"},
		Location:   "Austin, TX",
	}, 5)
	require.NoError(t, err)
	require.Len(t, prospects, 2)

	p := prospects[0]
	assert.Equal(t, "Faye", p.FirstName)
	assert.Equal(t, "faye.kerr@madeup.com", p.Email, "emails are normalized to lowercase")
	assert.Equal(t, model.SourceSynthetic, p.Source)
	assert.Equal(t, []string{TagAIGenerated}, p.Tags)
	assert.Equal(t, 72, p.Confidence)
	assert.NotEmpty(t, p.ID)

	// Unfillable fields get placeholder defaults.
	blank := prospects[1]
	assert.Equal(t, "John", blank.FirstName)
	assert.Equal(t, "Doe", blank.LastName)
	assert.Equal(t, "Unknown Company", blank.Company)
	assert.Equal(t, "Technology", blank.Industry, "filters fill missing industry")
	assert.Equal(t, 60, blank.Confidence, "out-of-range confidence is reset")

	assert.Contains(t, client.lastReq.Messages[0].Content, "Technology")
	require.NotNil(t, client.lastReq.Temperature)
}

func TestGenerate_TruncatesToN(t *testing.T) {
	client := &mockClient{resp: textResponse(`[
		{"first_name": "A", "last_name": "A", "company": "A"},
		{"first_name": "B", "last_name": "B", "company": "B"},
		{"first_name": "C", "last_name": "C", "company": "C"}
	]`)}

	g := NewGenerator(client, "m")
	prospects, err := g.Generate(context.Background(), model.SearchFilters{}, 2)
	require.NoError(t, err)
	assert.Len(t, prospects, 2)
}

func TestGenerate_APIFailure(t *testing.T) {
	g := NewGenerator(&mockClient{err: eris.New("api down")}, "m")

	_, err := g.Generate(context.Background(), model.SearchFilters{}, 3)
	assert.Error(t, err)
}

func TestGenerate_NoJSONArray(t *testing.T) {
	g := NewGenerator(&mockClient{resp: textResponse("Sorry, I can't do that.")}, "m")

	_, err := g.Generate(context.Background(), model.SearchFilters{}, 3)
	assert.Error(t, err)
}

func TestGenerate_ZeroCount(t *testing.T) {
	client := &mockClient{}
	g := NewGenerator(client, "m")

	prospects, err := g.Generate(context.Background(), model.SearchFilters{}, 0)
	assert.NoError(t, err)
	assert.Nil(t, prospects)
}

func TestStaticProspects(t *testing.T) {
	prospects := StaticProspects(model.SearchFilters{}, 3)
	require.Len(t, prospects, 3)

	for _, p := range prospects {
		assert.Equal(t, model.SourceStatic, p.Source)
		assert.Equal(t, []string{TagDemoData}, p.Tags)
		assert.NotEmpty(t, p.Email)
		assert.NotEmpty(t, p.Company)
		assert.NotEmpty(t, p.ID)
	}
}

func TestStaticProspects_IndustryPreference(t *testing.T) {
	prospects := StaticProspects(model.SearchFilters{Industries: []string{"Healthcare"}}, 2)
	require.Len(t, prospects, 2)
	assert.Equal(t, "Healthcare", prospects[0].Industry, "matching records come first")
}

func TestStaticProspects_CapsAtAvailable(t *testing.T) {
	prospects := StaticProspects(model.SearchFilters{}, 1000)
	assert.NotEmpty(t, prospects)
	assert.LessOrEqual(t, len(prospects), 1000)

	assert.Nil(t, StaticProspects(model.SearchFilters{}, 0))
}
