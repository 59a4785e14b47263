package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"

	"github.com/perbu/spymaster/pkg/clue"
	"github.com/perbu/spymaster/pkg/config"
	"github.com/perbu/spymaster/pkg/embedder"
	"github.com/perbu/spymaster/pkg/logging"
	"github.com/perbu/spymaster/pkg/vocab"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// flagBindings maps config keys to the flags that override them
var flagBindings = map[string]string{
	"vocab.path":             "vocab",
	"vocab.size":             "vocab-size",
	"embedder.provider":      "provider",
	"embedder.model":         "model",
	"index.path":             "index",
	"log.level":              "log-level",
	"clue.topn":              "top",
	"clue.steer":             "steer",
	"clue.weights.unrelated": "w-unrelated",
	"clue.weights.enemy":     "w-enemy",
	"clue.weights.assassin":  "w-assassin",
}

// app carries what every subcommand needs after configuration is loaded
type app struct {
	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "spymaster",
		Short: "Suggest Codenames clues from word embeddings",
		Long: `spymaster ranks a common-words vocabulary by cosine similarity to the
mean embedding of your team's words and suggests the best single-word clues.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), flagBindings)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Log.Level)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.String("vocab", "vocab.txt", "vocabulary file, downloaded if missing")
	pf.Int("vocab-size", vocab.DefaultSize, "number of words kept when downloading the vocabulary")
	pf.String("provider", config.ProviderONNX, "embedding provider: onnx, openai, ollama, huggingface, simple")
	pf.String("model", "", "embedding model (provider default if empty)")
	pf.String("index", "embeddings/vocab.gob", "precomputed vocabulary embeddings")
	pf.String("log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(newClueCmd(a), newPlayCmd(a), newVocabCmd(a))
	return root
}

// addClueFlags registers the ranking flags shared by clue and play
func addClueFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("top", clue.DefaultTopN, "number of clues to suggest")
	f.Bool("steer", false, "steer the clue away from unrelated, enemy and assassin words")
	f.Float32("w-unrelated", clue.DefaultWeights.Unrelated, "steering weight for unrelated words")
	f.Float32("w-enemy", clue.DefaultWeights.Enemy, "steering weight for enemy words")
	f.Float32("w-assassin", clue.DefaultWeights.Assassin, "steering weight for the assassin word")
}

// loadVocabulary downloads the vocabulary if needed and loads it
func (a *app) loadVocabulary(ctx context.Context) (*vocab.Vocabulary, error) {
	fetcher := &vocab.Fetcher{
		URL:    a.cfg.Vocab.URL,
		Size:   a.cfg.Vocab.Size,
		Client: http.DefaultClient,
		Logger: a.log,
	}
	if err := fetcher.Ensure(ctx, a.cfg.Vocab.Path); err != nil {
		return nil, err
	}

	v, err := vocab.Load(a.cfg.Vocab.Path)
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"path": a.cfg.Vocab.Path, "words": v.Len()}).Debug("vocabulary loaded")
	return v, nil
}

// newRanker loads the vocabulary and model once and builds the ranker.
// The returned embedder must be closed by the caller.
func (a *app) newRanker(ctx context.Context) (*clue.Ranker, embedder.Embedder, error) {
	v, err := a.loadVocabulary(ctx)
	if err != nil {
		return nil, nil, err
	}

	emb, err := embedder.New(ctx, a.cfg.Embedder, a.log)
	if err != nil {
		return nil, nil, fmt.Errorf("loading embedding model: %w", err)
	}

	opts := []clue.Option{clue.WithLogger(a.log)}

	if a.cfg.Clue.Steer {
		w := a.cfg.Clue.Weights
		opts = append(opts, clue.WithCombiner(clue.WeightedCombiner{
			Weights: clue.Weights{Unrelated: w.Unrelated, Enemy: w.Enemy, Assassin: w.Assassin},
		}))
	}

	idx, err := clue.LoadIndex(a.cfg.Index.Path)
	switch {
	case err == nil:
		if err := idx.Matches(emb, v); err != nil {
			a.log.WithError(err).Warn("ignoring stale vocabulary index")
		} else {
			opts = append(opts, clue.WithIndex(idx))
			a.log.WithField("path", a.cfg.Index.Path).Debug("using vocabulary index")
		}
	case errors.Is(err, fs.ErrNotExist):
		a.log.Debug("no vocabulary index, embedding vocabulary per request")
	default:
		a.log.WithError(err).Warn("ignoring unreadable vocabulary index")
	}

	r, err := clue.NewRanker(emb, v, opts...)
	if err != nil {
		_ = embedder.Close(emb)
		return nil, nil, err
	}
	return r, emb, nil
}

func printClues(w io.Writer, clues []clue.Clue) {
	fmt.Fprintln(w, "\n💡 Suggested Clues:")
	if len(clues) == 0 {
		fmt.Fprintln(w, "No clues found")
		return
	}
	for _, c := range clues {
		fmt.Fprintf(w, "→ %s (score: %.3f)\n", c.Word, c.Score)
	}
}
