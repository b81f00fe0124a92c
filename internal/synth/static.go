package synth

import (
	_ "embed"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/prospector/internal/model"
)

//go:embed static.yaml
var staticYAML []byte

type staticRecord struct {
	FirstName  string `yaml:"first_name"`
	LastName   string `yaml:"last_name"`
	Company    string `yaml:"company"`
	Position   string `yaml:"position"`
	Industry   string `yaml:"industry"`
	Location   string `yaml:"location"`
	Email      string `yaml:"email"`
	Website    string `yaml:"website"`
	Confidence int    `yaml:"confidence"`
}

// staticRecords is decoded once at startup; the file is part of the
// binary, so a decode failure is a programming error.
var staticRecords = func() []staticRecord {
	var records []staticRecord
	if err := yaml.Unmarshal(staticYAML, &records); err != nil {
		panic("synth: decode embedded demo records: " + err.Error())
	}
	return records
}()

// StaticProspects returns up to n embedded demo records, preferring
// records matching the filter industry. This is the last rung of the
// fallback chain and cannot fail.
func StaticProspects(filters model.SearchFilters, n int) []model.Prospect {
	if n <= 0 {
		return nil
	}
	if n > len(staticRecords) {
		n = len(staticRecords)
	}

	ordered := make([]staticRecord, 0, len(staticRecords))
	var rest []staticRecord
	for _, r := range staticRecords {
		if matchesIndustry(r.Industry, filters.Industries) {
			ordered = append(ordered, r)
		} else {
			rest = append(rest, r)
		}
	}
	ordered = append(ordered, rest...)

	prospects := make([]model.Prospect, 0, n)
	for _, r := range ordered[:n] {
		prospects = append(prospects, model.Prospect{
			Contact: model.Contact{
				ID:         uuid.New().String(),
				FirstName:  r.FirstName,
				LastName:   r.LastName,
				Email:      r.Email,
				Company:    r.Company,
				Position:   r.Position,
				Industry:   r.Industry,
				Location:   r.Location,
				Website:    r.Website,
				Source:     model.SourceStatic,
				Confidence: r.Confidence,
				CreatedAt:  time.Now().UTC(),
			},
			Tags: []string{TagDemoData},
		})
	}

	zap.L().Info("static demo prospects served", zap.Int("count", len(prospects)))
	return prospects
}

func matchesIndustry(industry string, wanted []string) bool {
	for _, w := range wanted {
		if strings.EqualFold(industry, w) {
			return true
		}
	}
	return false
}
