package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	outreachChannel   string
	outreachTone      string
	outreachObjective string
)

var outreachCmd = &cobra.Command{
	Use:   "outreach <prospect-id>",
	Short: "Draft an outreach message for a stored prospect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer e.Close()

		if e.Insights == nil {
			return eris.New("outreach: anthropic.key is not configured")
		}

		p, err := e.Store.GetProspect(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load prospect")
		}

		msg, err := e.Insights.Outreach(ctx, p.Contact, outreachChannel, outreachTone, outreachObjective)
		if err != nil {
			return eris.Wrap(err, "generate outreach")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(msg)
	},
}

func init() {
	outreachCmd.Flags().StringVar(&outreachChannel, "channel", "email", "message channel")
	outreachCmd.Flags().StringVar(&outreachTone, "tone", "professional", "message tone")
	outreachCmd.Flags().StringVar(&outreachObjective, "objective", "book a meeting", "message objective")
	rootCmd.AddCommand(outreachCmd)
}
