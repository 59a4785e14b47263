package main

import (
	"github.com/perbu/spymaster/pkg/clue"
	"github.com/perbu/spymaster/pkg/embedder"
	"github.com/spf13/cobra"
)

func newClueCmd(a *app) *cobra.Command {
	var (
		unrelated []string
		enemy     []string
		assassin  string
	)

	cmd := &cobra.Command{
		Use:   "clue <team words...>",
		Short: "Suggest clues for a set of team words",
		Long: `Suggest clues for a set of team words.

Examples:
  spymaster clue king queen knight
  spymaster clue --top 10 ocean river
  spymaster clue --enemy water --assassin fish ocean river`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, emb, err := a.newRanker(ctx)
			if err != nil {
				return err
			}
			defer embedder.Close(emb)

			clues, err := r.Rank(ctx, clue.Request{
				Positive:  args,
				Unrelated: unrelated,
				Enemy:     enemy,
				Assassin:  assassin,
				TopN:      a.cfg.Clue.TopN,
			})
			if err != nil {
				return err
			}

			printClues(cmd.OutOrStdout(), clues)
			return nil
		},
	}

	addClueFlags(cmd)
	cmd.Flags().StringSliceVar(&unrelated, "unrelated", nil, "neutral board words to avoid (comma separated)")
	cmd.Flags().StringSliceVar(&enemy, "enemy", nil, "enemy team words to avoid (comma separated)")
	cmd.Flags().StringVar(&assassin, "assassin", "", "the assassin word")
	return cmd
}
