package clue

import (
	"context"
	"fmt"

	"github.com/perbu/spymaster/pkg/embedder"
	"github.com/viterin/vek/vek32"
)

// Combiner turns the mean team vector into the vector vocabulary words are
// scored against. It may embed the request's other word groups.
type Combiner interface {
	Combine(ctx context.Context, emb embedder.Embedder, target []float32, req Request) ([]float32, error)
}

// MeanCombiner scores against the team mean as is. Unrelated, enemy and
// assassin words only affect filtering.
type MeanCombiner struct{}

func (MeanCombiner) Combine(_ context.Context, _ embedder.Embedder, target []float32, _ Request) ([]float32, error) {
	return target, nil
}

// Weights scale how strongly each group of board words is steered away from
type Weights struct {
	Unrelated float32
	Enemy     float32
	Assassin  float32
}

// DefaultWeights penalise the assassin hardest and neutral words least
var DefaultWeights = Weights{Unrelated: 0.5, Enemy: 1.0, Assassin: 3.0}

// WeightedCombiner subtracts weighted group means from the team mean:
//
//	target - wU*mean(unrelated) - wE*mean(enemy) - wA*assassin
//
// Empty groups are skipped.
type WeightedCombiner struct {
	Weights Weights
}

func (w WeightedCombiner) Combine(ctx context.Context, emb embedder.Embedder, target []float32, req Request) ([]float32, error) {
	out := make([]float32, len(target))
	copy(out, target)

	groups := []struct {
		name   string
		words  []string
		weight float32
	}{
		{"unrelated", normalizeWords(req.Unrelated), w.Weights.Unrelated},
		{"enemy", normalizeWords(req.Enemy), w.Weights.Enemy},
		{"assassin", normalizeWords([]string{req.Assassin}), w.Weights.Assassin},
	}

	for _, g := range groups {
		if len(g.words) == 0 {
			continue
		}

		vecs, err := emb.EmbedBatch(ctx, g.words)
		if err != nil {
			return nil, fmt.Errorf("embedding %s words: %w", g.name, err)
		}
		m, err := Mean(vecs)
		if err != nil {
			return nil, fmt.Errorf("%s words: %w", g.name, err)
		}
		if len(m) != len(out) {
			return nil, fmt.Errorf("%s words: dimension %d, want %d", g.name, len(m), len(out))
		}

		// Mean allocates, so scaling in place never touches cached vectors.
		vek32.MulNumber_Inplace(m, g.weight)
		vek32.Sub_Inplace(out, m)
	}

	return out, nil
}
