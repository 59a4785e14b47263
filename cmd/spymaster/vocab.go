package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVocabCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Download the vocabulary if missing and report its size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.loadVocabulary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d words (snapshot %016x)\n", a.cfg.Vocab.Path, v.Len(), v.Snapshot())
			return nil
		},
	}
}
