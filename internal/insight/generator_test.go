package insight

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

var testContact = model.Contact{
	ID:        "p-1",
	FirstName: "Jane",
	LastName:  "Doe",
	Company:   "Acme Corp",
	Position:  "CEO",
	Industry:  "Manufacturing",
}

func TestInsights(t *testing.T) {
	client := &mockClient{resp: textResponse(`Here you go:
{"talking_points": ["Recent expansion", "Automation push", "Hiring plans"],
 "pain_points": ["Supply chain costs", "Legacy tooling", "Talent retention"],
 "outreach_strategy": "Lead with the expansion angle.",
 "company_insights": "Acme is scaling production.",
 "personalization_data": "Mention the new plant."}`)}

	g := NewGenerator(client, "claude-sonnet-4-5-20250929")
	bundle := g.Insights(context.Background(), testContact)

	assert.Equal(t, []string{"Recent expansion", "Automation push", "Hiring plans"}, bundle.TalkingPoints)
	assert.Equal(t, "Lead with the expansion angle.", bundle.OutreachStrategy)
	assert.Contains(t, client.lastReq.Messages[0].Content, "Jane Doe")
	assert.Contains(t, client.lastReq.Messages[0].Content, "Acme Corp")
}

func TestInsights_APIFailureServesGenericBundle(t *testing.T) {
	g := NewGenerator(&mockClient{err: eris.New("api down")}, "m")

	bundle := g.Insights(context.Background(), testContact)
	assert.Equal(t, GenericBundle(), bundle)
	assert.NotEmpty(t, bundle.TalkingPoints)
}

func TestInsights_ParseFailureServesGenericBundle(t *testing.T) {
	g := NewGenerator(&mockClient{resp: textResponse("no json here")}, "m")

	bundle := g.Insights(context.Background(), testContact)
	assert.Equal(t, GenericBundle(), bundle)
}

func TestInsights_EmptyTalkingPointsServesGenericBundle(t *testing.T) {
	g := NewGenerator(&mockClient{resp: textResponse(`{"talking_points": []}`)}, "m")

	bundle := g.Insights(context.Background(), testContact)
	assert.Equal(t, GenericBundle(), bundle)
}

func TestOutreach(t *testing.T) {
	client := &mockClient{resp: textResponse("Hi Jane, congratulations on the expansion...")}
	g := NewGenerator(client, "m")

	msg, err := g.Outreach(context.Background(), testContact, "linkedin", "casual", "start a conversation")
	require.NoError(t, err)

	assert.Equal(t, "Hi Jane, congratulations on the expansion...", msg.Content)
	assert.Equal(t, "linkedin", msg.Channel)
	assert.Equal(t, "casual", msg.Tone)
	assert.Equal(t, "start a conversation", msg.Objective)
	assert.False(t, msg.GeneratedAt.IsZero())
}

func TestOutreach_Defaults(t *testing.T) {
	client := &mockClient{resp: textResponse("Hello...")}
	g := NewGenerator(client, "m")

	msg, err := g.Outreach(context.Background(), testContact, "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "email", msg.Channel)
	assert.Equal(t, "professional", msg.Tone)
	assert.Equal(t, "book a meeting", msg.Objective)
}

func TestOutreach_FailureIsTyped(t *testing.T) {
	g := NewGenerator(&mockClient{err: eris.New("api down")}, "m")

	_, err := g.Outreach(context.Background(), testContact, "email", "", "")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrGenerationFailed))
}

func TestOutreach_EmptyOutputIsTyped(t *testing.T) {
	g := NewGenerator(&mockClient{resp: textResponse("   ")}, "m")

	_, err := g.Outreach(context.Background(), testContact, "email", "", "")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrGenerationFailed))
}
