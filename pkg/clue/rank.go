package clue

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/perbu/spymaster/pkg/embedder"
	"github.com/perbu/spymaster/pkg/logging"
	"github.com/perbu/spymaster/pkg/vocab"
	"github.com/sirupsen/logrus"
)

// Ranker scores a fixed vocabulary against team words.
// It is immutable after construction and safe to reuse across requests.
type Ranker struct {
	emb      embedder.Embedder
	vocab    *vocab.Vocabulary
	combiner Combiner
	index    *Index
	log      logrus.FieldLogger
}

// Option configures a Ranker
type Option func(*Ranker)

// WithCombiner replaces the default MeanCombiner
func WithCombiner(c Combiner) Option {
	return func(r *Ranker) {
		r.combiner = c
	}
}

// WithIndex supplies precomputed vocabulary embeddings. NewRanker rejects an
// index built for a different model or vocabulary.
func WithIndex(idx *Index) Option {
	return func(r *Ranker) {
		r.index = idx
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Ranker) {
		r.log = l
	}
}

// NewRanker creates a Ranker over v using emb
func NewRanker(emb embedder.Embedder, v *vocab.Vocabulary, opts ...Option) (*Ranker, error) {
	if emb == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if v == nil {
		return nil, fmt.Errorf("vocabulary is required")
	}

	r := &Ranker{
		emb:      emb,
		vocab:    v,
		combiner: MeanCombiner{},
		log:      logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.index != nil {
		if err := r.index.Matches(emb, v); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Rank returns up to req.TopN vocabulary words ordered by descending cosine
// similarity to the mean of the team words. Words equal to, or containing,
// any board word are skipped. Fewer results than requested is not an error.
func (r *Ranker) Rank(ctx context.Context, req Request) ([]Clue, error) {
	positive := normalizeWords(req.Positive)
	if len(positive) == 0 {
		return nil, ErrInvalidInput
	}

	topN := req.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	posVecs, err := r.emb.EmbedBatch(ctx, positive)
	if err != nil {
		return nil, fmt.Errorf("embedding team words: %w", err)
	}
	target, err := Mean(posVecs)
	if err != nil {
		return nil, fmt.Errorf("team words: %w", err)
	}

	clueVec, err := r.combiner.Combine(ctx, r.emb, target, req)
	if err != nil {
		return nil, err
	}

	vocabVecs, err := r.vocabVectors(ctx)
	if err != nil {
		return nil, err
	}

	scores := make([]float32, len(vocabVecs))
	for i, v := range vocabVecs {
		if len(v) != len(clueVec) {
			return nil, fmt.Errorf("vocabulary word %q has dimension %d, want %d", r.vocab.Word(i), len(v), len(clueVec))
		}
		scores[i] = CosineSimilarity(clueVec, v)
	}

	// Sort by score descending; equal scores keep vocabulary order
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	forbidden := Forbidden(req)
	results := make([]Clue, 0, min(topN, len(order)))
	for _, idx := range order {
		word := r.vocab.Word(idx)
		if isForbidden(strings.ToLower(word), forbidden) {
			continue
		}
		results = append(results, Clue{Word: word, Score: scores[idx]})
		if len(results) >= topN {
			break
		}
	}

	r.log.WithFields(logrus.Fields{
		"team":      positive,
		"forbidden": len(forbidden),
		"results":   len(results),
	}).Debug("ranked clues")

	return results, nil
}

// Forbidden returns every board word in the request, lower-cased, without
// duplicates or blanks. No clue may equal or contain one of them.
func Forbidden(req Request) []string {
	var all []string
	all = append(all, req.Positive...)
	all = append(all, req.Unrelated...)
	all = append(all, req.Enemy...)
	all = append(all, req.Assassin)

	seen := make(map[string]bool)
	var out []string
	for _, w := range normalizeWords(all) {
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// vocabVectors uses the index when present and embeds the vocabulary otherwise
func (r *Ranker) vocabVectors(ctx context.Context) ([][]float32, error) {
	if r.index != nil {
		return r.index.Embeddings, nil
	}

	vecs, err := r.emb.EmbedBatch(ctx, r.vocab.Words())
	if err != nil {
		return nil, fmt.Errorf("embedding vocabulary: %w", err)
	}
	if len(vecs) != r.vocab.Len() {
		return nil, fmt.Errorf("embedder returned %d vectors for %d vocabulary words", len(vecs), r.vocab.Len())
	}
	return vecs, nil
}

// isForbidden reports whether word equals or contains any forbidden word
func isForbidden(word string, forbidden []string) bool {
	for _, f := range forbidden {
		if word == f || strings.Contains(word, f) {
			return true
		}
	}
	return false
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
