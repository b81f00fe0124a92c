// Package insight generates sales intelligence and outreach drafts for
// individual prospects. Insights degrade to a generic bundle on any
// failure; outreach surfaces a typed error instead.
package insight

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/anthropic"
)

// ErrGenerationFailed indicates the outreach call could not produce a
// message. Callers match it with eris.Is.
var ErrGenerationFailed = eris.New("insight: generation failed")

// Generator produces insight bundles and outreach messages.
type Generator struct {
	client anthropic.Client
	model  string
	now    func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(client anthropic.Client, modelID string) *Generator {
	return &Generator{client: client, model: modelID, now: time.Now}
}

const insightSystemPrompt = `You are a B2B sales research assistant.
Respond with a single JSON object only. No prose, no markdown fences.`

// Insights generates talking points and strategy for one contact. It
// never returns an error: any service or parse failure yields the
// generic bundle so enrichment can't break a caller.
func (g *Generator) Insights(ctx context.Context, contact model.Contact) model.InsightBundle {
	prompt := fmt.Sprintf(
		`Generate sales insights for reaching out to %s, %s at %s (industry: %s, location: %s).
Return a JSON object with keys: talking_points (array of 3 strings), pain_points (array of 3 strings), outreach_strategy (string), company_insights (string), personalization_data (string).`,
		contact.FullName(), contact.Position, contact.Company,
		orDefault(contact.Industry, "unknown"), orDefault(contact.Location, "unknown"),
	)

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: 1024,
		System:    insightSystemPrompt,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		zap.L().Warn("insight generation failed, serving generic bundle",
			zap.String("contact_id", contact.ID),
			zap.Error(err),
		)
		return GenericBundle()
	}
	resp.Usage.LogCost(g.model, "insights")

	bundle, err := parseBundle(resp.Text())
	if err != nil {
		zap.L().Warn("insight parse failed, serving generic bundle",
			zap.String("contact_id", contact.ID),
			zap.Error(err),
		)
		return GenericBundle()
	}
	return bundle
}

// Outreach drafts one outbound message for a contact. Unlike Insights
// there is no canned fallback; failures wrap ErrGenerationFailed.
func (g *Generator) Outreach(ctx context.Context, contact model.Contact, channel, tone, objective string) (*model.OutreachMessage, error) {
	channel = orDefault(channel, "email")
	tone = orDefault(tone, "professional")
	objective = orDefault(objective, "book a meeting")

	prompt := fmt.Sprintf(
		`Write a %s %s message to %s, %s at %s. Objective: %s.
Keep it under 150 words. Return only the message text, no subject line, no commentary.`,
		tone, channel, contact.FullName(), contact.Position, contact.Company, objective,
	)

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.model,
		MaxTokens: 512,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, eris.Wrap(ErrGenerationFailed, err.Error())
	}
	resp.Usage.LogCost(g.model, "outreach")

	content := strings.TrimSpace(resp.Text())
	if content == "" {
		return nil, eris.Wrap(ErrGenerationFailed, "empty model output")
	}

	return &model.OutreachMessage{
		Content:     content,
		Channel:     channel,
		Tone:        tone,
		Objective:   objective,
		GeneratedAt: g.now().UTC(),
	}, nil
}

// parseBundle extracts the first JSON object from model output.
func parseBundle(text string) (model.InsightBundle, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return model.InsightBundle{}, eris.New("insight: no JSON object in model output")
	}

	var bundle model.InsightBundle
	if err := json.Unmarshal([]byte(text[start:end+1]), &bundle); err != nil {
		return model.InsightBundle{}, eris.Wrap(err, "insight: unmarshal model output")
	}
	if len(bundle.TalkingPoints) == 0 {
		return model.InsightBundle{}, eris.New("insight: bundle missing talking points")
	}
	return bundle, nil
}

// GenericBundle is the fixed fallback served when generation fails.
func GenericBundle() model.InsightBundle {
	return model.InsightBundle{
		TalkingPoints: []string{
			"Industry expertise and thought leadership",
			"Company growth and recent milestones",
			"Market trends affecting their sector",
		},
		PainPoints: []string{
			"Scaling operations efficiently",
			"Staying competitive in a changing market",
			"Finding and retaining top talent",
		},
		OutreachStrategy:    "Lead with a relevant industry observation, then connect it to a concrete outcome you can help deliver.",
		CompanyInsights:     "Research the company's recent announcements and public priorities before reaching out.",
		PersonalizationData: "Reference the contact's role and industry to establish relevance.",
	}
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
