// Package synth produces placeholder prospects when every real
// acquisition channel comes up empty. Output is always tagged so it
// can never be mistaken for discovered data.
package synth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/anthropic"
)

// Tags applied to generated and demo records. The discovery layer
// treats these as a strict invariant.
const (
	TagAIGenerated = "AI Generated"
	TagDemoData    = "Demo Data"
)

// Generator produces synthetic prospects with a Claude model.
type Generator struct {
	client anthropic.Client
	model  string
}

// NewGenerator creates a Generator.
func NewGenerator(client anthropic.Client, modelID string) *Generator {
	return &Generator{client: client, model: modelID}
}

// generatedContact is the shape we ask the model to emit.
type generatedContact struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Company    string `json:"company"`
	Position   string `json:"position"`
	Industry   string `json:"industry"`
	Location   string `json:"location"`
	Email      string `json:"email"`
	Website    string `json:"website"`
	Confidence int    `json:"confidence"`
}

const synthSystemPrompt = `You generate fictional but realistic B2B prospect records for product demos.
Respond with a JSON array only. No prose, no markdown fences.`

// Generate asks the model for n plausible prospect records matching
// the filters. Any API or parse failure returns an error; callers fall
// through to StaticProspects.
func (g *Generator) Generate(ctx context.Context, filters model.SearchFilters, n int) ([]model.Prospect, error) {
	if n <= 0 {
		return nil, nil
	}

	temp := 1.0
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       g.model,
		MaxTokens:   2048,
		System:      synthSystemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(filters, n)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "synth: create message")
	}
	resp.Usage.LogCost(g.model, "synth")

	generated, err := parseContacts(resp.Text())
	if err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return nil, eris.New("synth: model returned no records")
	}
	if len(generated) > n {
		generated = generated[:n]
	}

	prospects := make([]model.Prospect, 0, len(generated))
	for _, gc := range generated {
		confidence := gc.Confidence
		if confidence <= 0 || confidence > 100 {
			confidence = 60
		}
		prospects = append(prospects, model.Prospect{
			Contact: model.Contact{
				ID:         uuid.New().String(),
				FirstName:  orDefault(gc.FirstName, "John"),
				LastName:   orDefault(gc.LastName, "Doe"),
				Email:      strings.ToLower(gc.Email),
				Company:    orDefault(gc.Company, "Unknown Company"),
				Position:   orDefault(gc.Position, "Professional"),
				Industry:   orDefault(gc.Industry, firstOr(filters.Industries, "Business")),
				Location:   orDefault(gc.Location, filters.Location),
				Website:    gc.Website,
				Source:     model.SourceSynthetic,
				Confidence: confidence,
				CreatedAt:  time.Now().UTC(),
			},
			Tags: []string{TagAIGenerated},
		})
	}

	zap.L().Info("synthetic prospects generated", zap.Int("count", len(prospects)))
	return prospects, nil
}

// buildPrompt describes the requested records from the filters.
func buildPrompt(filters model.SearchFilters, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d prospect records as a JSON array of objects with keys: "+
		"first_name, last_name, company, position, industry, location, email, website, confidence (0-100).\n", n)
	if len(filters.Industries) > 0 {
		fmt.Fprintf(&b, "Industries: %s.\n", strings.Join(filters.Industries, ", "))
	}
	if len(filters.Positions) > 0 {
		fmt.Fprintf(&b, "Positions: %s.\n", strings.Join(filters.Positions, ", "))
	}
	if filters.Location != "" {
		fmt.Fprintf(&b, "Location: %s.\n", filters.Location)
	}
	if filters.CompanySize != "" {
		fmt.Fprintf(&b, "Company size: %s.\n", filters.CompanySize)
	}
	if filters.Keywords != "" {
		fmt.Fprintf(&b, "Keywords: %s.\n", filters.Keywords)
	}
	b.WriteString("Use fictional companies and people. Emails must match the company website domain.")
	return b.String()
}

// parseContacts extracts the first JSON array from model output,
// tolerating surrounding prose or markdown fences.
func parseContacts(text string) ([]generatedContact, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, eris.New("synth: no JSON array in model output")
	}

	var out []generatedContact
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, eris.Wrap(err, "synth: unmarshal model output")
	}
	return out, nil
}

func firstOr(values []string, def string) string {
	if len(values) > 0 {
		return values[0]
	}
	return def
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
