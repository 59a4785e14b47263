package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/perbu/spymaster/pkg/clue"
	"github.com/perbu/spymaster/pkg/embedder"
	"github.com/spf13/cobra"
)

func newPlayCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Interactively suggest clues, one board at a time",
		Long: `Prompt for team words and print suggested clues until end of input.

With --steer, also prompts for unrelated, enemy and assassin words.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, emb, err := a.newRanker(ctx)
			if err != nil {
				return err
			}
			defer embedder.Close(emb)

			in := bufio.NewScanner(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			for {
				fmt.Fprintln(out, "\n🎯 Enter your team words (e.g., king queen knight):")
				positive, ok := prompt(in, out, "Your team words: ")
				if !ok {
					return in.Err()
				}

				req := clue.Request{Positive: strings.Fields(positive), TopN: a.cfg.Clue.TopN}

				if a.cfg.Clue.Steer {
					unrelated, _ := prompt(in, out, "Unrelated words: ")
					enemy, _ := prompt(in, out, "Enemy words: ")
					assassin, _ := prompt(in, out, "Assassin word: ")
					req.Unrelated = strings.Fields(unrelated)
					req.Enemy = strings.Fields(enemy)
					req.Assassin = assassin
				}

				clues, err := r.Rank(ctx, req)
				if errors.Is(err, clue.ErrInvalidInput) {
					fmt.Fprintf(out, "❌ %v\n", err)
					continue
				}
				if err != nil {
					return err
				}

				printClues(out, clues)
			}
		},
	}

	addClueFlags(cmd)
	return cmd
}

// prompt prints label and returns the next line, lower-cased and trimmed.
// ok is false at end of input.
func prompt(in *bufio.Scanner, out io.Writer, label string) (string, bool) {
	fmt.Fprint(out, label)
	if !in.Scan() {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(in.Text())), true
}
