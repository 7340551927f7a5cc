package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chargingthefuture/linkproof/internal/rank"
	"github.com/chargingthefuture/linkproof/internal/store"
)

var rankRecompute bool

// rankCmd lists an item's answers by relevance from the configured store.
var rankCmd = &cobra.Command{
	Use:   "rank <item-id>",
	Short: "List an item's answers ordered by relevance",
	Long: `Read the configured store and print the item's answers best first.
With --recompute, re-derive each answer's relevance from current votes,
reputation, and provenance before listing.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.Store)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer func() { _ = st.Close() }()

		ctx := cmd.Context()
		itemID := args[0]

		answers, err := st.AnswersByItem(ctx, itemID)
		if err != nil {
			return fmt.Errorf("load answers: %w", err)
		}

		if rankRecompute {
			calculator := rank.NewCalculator(st, cfg.Scoring)
			for _, a := range answers {
				if _, err := calculator.Recompute(ctx, a.ID); err != nil {
					return fmt.Errorf("recompute %s: %w", a.ID, err)
				}
			}
			answers, err = st.AnswersByItem(ctx, itemID)
			if err != nil {
				return fmt.Errorf("reload answers: %w", err)
			}
		}

		if len(answers) == 0 {
			fmt.Printf("No answers for item %s\n", itemID)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RELEVANCE\tVERIFIED\tVOTES\tACCEPTED\tANSWER")
		for _, a := range answers {
			accepted := ""
			if a.IsAccepted {
				accepted = "yes"
			}
			fmt.Fprintf(w, "%.3f\t%.3f\t%d\t%s\t%s\n",
				a.RelevanceScore, a.VerificationScore, a.VoteScore, accepted, a.ID)
		}
		return w.Flush()
	},
}

func init() {
	rankCmd.Flags().BoolVar(&rankRecompute, "recompute", false, "recompute relevance before listing")
	rootCmd.AddCommand(rankCmd)
}
