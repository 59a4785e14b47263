package clue

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"
)

// CosineSimilarity computes the cosine similarity between two vectors.
// Returns a value between -1 and 1, or 0 when either vector has zero
// norm or the lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	dot := vek32.Dot(a, b)
	normA := vek32.Dot(a, a)
	normB := vek32.Dot(b, b)

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := float64(dot) / (math.Sqrt(float64(normA)) * math.Sqrt(float64(normB)))
	return float32(max(-1, min(1, sim)))
}

// Mean returns the element-wise mean of vecs as a new vector
func Mean(vecs [][]float32) ([]float32, error) {
	if len(vecs) == 0 {
		return nil, fmt.Errorf("mean of zero vectors")
	}

	dim := len(vecs[0])
	sums := make([]float32, dim)
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
		vek32.Add_Inplace(sums, v)
	}

	vek32.MulNumber_Inplace(sums, 1/float32(len(vecs)))
	return sums, nil
}
