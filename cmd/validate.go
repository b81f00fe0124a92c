package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/prospector/internal/emailcheck"
)

var (
	validateFirst   string
	validateLast    string
	validateCompany string
)

var validateCmd = &cobra.Command{
	Use:   "validate [email]",
	Short: "Validate an email address or rank guessed addresses for a person",
	Long: `With an email argument, checks format and mail-record reachability.
With --first/--last/--company, ranks the standard address permutations instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		checker := emailcheck.New()
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if len(args) == 1 {
			return enc.Encode(checker.Validate(cmd.Context(), args[0]))
		}

		if validateFirst == "" || validateLast == "" || validateCompany == "" {
			return cmd.Usage()
		}
		return enc.Encode(checker.RankCandidates(validateFirst, validateLast, validateCompany))
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateFirst, "first", "", "first name")
	validateCmd.Flags().StringVar(&validateLast, "last", "", "last name")
	validateCmd.Flags().StringVar(&validateCompany, "company", "", "company name or domain")
	rootCmd.AddCommand(validateCmd)
}
