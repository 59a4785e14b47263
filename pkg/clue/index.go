package clue

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/perbu/spymaster/pkg/embedder"
	"github.com/perbu/spymaster/pkg/vocab"
)

// BuildIndex embeds the whole vocabulary in one batch
func BuildIndex(ctx context.Context, emb embedder.Embedder, v *vocab.Vocabulary) (*Index, error) {
	vecs, err := emb.EmbedBatch(ctx, v.Words())
	if err != nil {
		return nil, fmt.Errorf("embedding vocabulary: %w", err)
	}
	return NewIndex(emb, v, vecs)
}

// NewIndex wraps already computed vocabulary embeddings
func NewIndex(emb embedder.Embedder, v *vocab.Vocabulary, vecs [][]float32) (*Index, error) {
	if len(vecs) != v.Len() {
		return nil, fmt.Errorf("got %d embeddings for %d vocabulary words", len(vecs), v.Len())
	}

	dim := emb.Dimension()
	if len(vecs) > 0 {
		dim = len(vecs[0])
	}

	return &Index{
		Words:      v.Words(),
		Embeddings: vecs,
		ModelInfo:  emb.ModelInfo(),
		Dimension:  dim,
		Snapshot:   v.Snapshot(),
	}, nil
}

// Matches reports whether the index was built by emb's model over v
func (idx *Index) Matches(emb embedder.Embedder, v *vocab.Vocabulary) error {
	if idx.ModelInfo != emb.ModelInfo() {
		return fmt.Errorf("index built with model %s, embedder is %s", idx.ModelInfo, emb.ModelInfo())
	}
	if idx.Snapshot != v.Snapshot() || len(idx.Embeddings) != v.Len() {
		return fmt.Errorf("index built for a different vocabulary")
	}
	if d := emb.Dimension(); d > 0 && idx.Dimension != d {
		return fmt.Errorf("index dimension %d, embedder dimension %d", idx.Dimension, d)
	}
	for i, vec := range idx.Embeddings {
		if len(vec) != idx.Dimension {
			return fmt.Errorf("index entry %d has dimension %d, want %d", i, len(vec), idx.Dimension)
		}
	}
	return nil
}

// LoadIndex decodes an index written by SaveIndex
func LoadIndex(path string) (*Index, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var idx Index
	if err := gob.NewDecoder(file).Decode(&idx); err != nil {
		return nil, fmt.Errorf("decoding index %s: %w", path, err)
	}
	return &idx, nil
}

// SaveIndex writes idx to path, replacing any existing file atomically
func SaveIndex(path string, idx *Index) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}

	if err := gob.NewEncoder(file).Encode(idx); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(path+".tmp", path)
}
