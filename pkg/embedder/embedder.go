package embedder

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

// Embedder maps words to fixed-length vectors.
// Implementations must be deterministic for a given model and return one
// vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	ModelInfo() string
}

// SimpleEmbedder hashes character trigrams into a fixed number of buckets.
// Words that share spelling share direction, which is enough for tests and
// offline runs without a model.
type SimpleEmbedder struct {
	dim int
}

// NewSimpleEmbedder creates a hashing embedder with the given dimension
func NewSimpleEmbedder(dimension int) *SimpleEmbedder {
	return &SimpleEmbedder{dim: dimension}
}

// Embed generates a trigram-hash vector for text
func (e *SimpleEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dim)

	runes := []rune("^" + text + "$")
	for i := 0; i+3 <= len(runes); i++ {
		h := fnv.New32a()
		_, _ = h.Write([]byte(string(runes[i : i+3])))
		sum := h.Sum32()

		idx := int(sum % uint32(e.dim))
		if sum&(1<<31) != 0 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}

	l2normalize(vec)
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts
func (e *SimpleEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimension returns the embedding dimension
func (e *SimpleEmbedder) Dimension() int {
	return e.dim
}

// ModelInfo returns model information
func (e *SimpleEmbedder) ModelInfo() string {
	return fmt.Sprintf("simple-trigram-%d", e.dim)
}

// l2normalize normalizes a vector to unit length
func l2normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}

// unitVectors checks that a provider returned one vector per input and
// returns L2-normalised copies. Sentence-transformers models end in a
// Normalize layer, so mean pooling across words averages unit vectors.
func unitVectors(vecs [][]float32, n int) ([][]float32, error) {
	if len(vecs) != n {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(vecs), n)
	}
	out := make([][]float32, n)
	for i, v := range vecs {
		c := make([]float32, len(v))
		copy(c, v)
		l2normalize(c)
		out[i] = c
	}
	return out, nil
}
