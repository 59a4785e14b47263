package clue

import "errors"

// DefaultTopN is the number of clues returned when a request doesn't say
const DefaultTopN = 5

// ErrInvalidInput is returned when a request has no usable team words
var ErrInvalidInput = errors.New("no valid team words")

// Request describes one board position to find clues for
type Request struct {
	Positive  []string // Team words the clue should point to
	Unrelated []string // Neutral words on the board
	Enemy     []string // Opposing team's words
	Assassin  string   // The assassin word, empty if unknown
	TopN      int      // Maximum number of clues; <= 0 means DefaultTopN
}

// Clue is a suggested vocabulary word and its similarity to the team words
type Clue struct {
	Word  string
	Score float32 // Cosine similarity, in [-1, 1]
}

// Index holds precomputed vocabulary embeddings
type Index struct {
	Words      []string    // Vocabulary words, in vocabulary order
	Embeddings [][]float32 // Corresponding embeddings (Words[i] ↔ Embeddings[i])
	ModelInfo  string      // Model name/version used
	Dimension  int         // Embedding vector dimension
	Snapshot   uint64      // Snapshot of the vocabulary the index was built from
}
