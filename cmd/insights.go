package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/insight"
)

var insightsCmd = &cobra.Command{
	Use:   "insights <prospect-id>",
	Short: "Generate sales insights for a stored prospect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.Store.GetProspect(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load prospect")
		}

		bundle := insight.GenericBundle()
		if e.Insights != nil {
			bundle = e.Insights.Insights(ctx, p.Contact)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bundle)
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
}
