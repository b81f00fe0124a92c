package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/internal/store"
)

var (
	discoverIndustries  []string
	discoverPositions   []string
	discoverLocation    string
	discoverCompanySize string
	discoverKeywords    string
	discoverLimit       int
	discoverSave        bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover and rank prospects for the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), discoverTimeout())
		defer cancel()

		e, err := initEnv(ctx, discoverSave)
		if err != nil {
			return err
		}
		defer e.Close()

		filters := model.SearchFilters{
			Industries:  discoverIndustries,
			Positions:   discoverPositions,
			Location:    discoverLocation,
			CompanySize: discoverCompanySize,
			Keywords:    discoverKeywords,
			Limit:       discoverLimit,
		}

		prospects, meta, err := e.Orchestrator.Discover(ctx, filters)
		if err != nil {
			return eris.Wrap(err, "discover")
		}

		if discoverSave {
			meta.NewCount = persistProspects(ctx, e.Store, prospects)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Prospects []model.Prospect    `json:"prospects"`
			Meta      model.DiscoveryMeta `json:"meta"`
		}{prospects, meta})
	},
}

// persistProspects inserts prospects, skipping duplicates, and returns
// how many were actually new.
func persistProspects(ctx context.Context, st store.Store, prospects []model.Prospect) int {
	inserted := 0
	for _, p := range prospects {
		err := st.InsertProspect(ctx, p)
		switch {
		case err == nil:
			inserted++
		case eris.Is(err, store.ErrAlreadyExists):
			zap.L().Debug("prospect already stored", zap.String("id", p.ID))
		default:
			zap.L().Warn("insert prospect failed", zap.String("id", p.ID), zap.Error(err))
		}
	}
	return inserted
}

func init() {
	discoverCmd.Flags().StringSliceVar(&discoverIndustries, "industry", nil, "industry filter (repeatable)")
	discoverCmd.Flags().StringSliceVar(&discoverPositions, "position", nil, "position filter (repeatable)")
	discoverCmd.Flags().StringVar(&discoverLocation, "location", "", "location filter")
	discoverCmd.Flags().StringVar(&discoverCompanySize, "company-size", "", "company size filter")
	discoverCmd.Flags().StringVar(&discoverKeywords, "keywords", "", "free-text keywords")
	discoverCmd.Flags().IntVar(&discoverLimit, "limit", 0, "result cap (default 20, max 50)")
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "persist discovered prospects")
	rootCmd.AddCommand(discoverCmd)
}
