package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/perbu/spymaster/pkg/embedder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortEmbedder drops the last vector of every batch
type shortEmbedder struct {
	embedder.Embedder
}

func (s shortEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := s.Embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	return vecs[:len(vecs)-1], nil
}

func TestEmbedBatch(t *testing.T) {
	words := []string{"ocean", "river", "water", "fire"}
	emb := embedder.NewSimpleEmbedder(32)

	vecs, err := embedBatch(context.Background(), emb, words, []int{1, 3})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	want, err := emb.Embed(context.Background(), "fire")
	require.NoError(t, err)
	assert.Equal(t, want, vecs[1])
}

func TestEmbedBatch_ShortResult(t *testing.T) {
	words := []string{"ocean", "river", "water"}
	emb := shortEmbedder{embedder.NewSimpleEmbedder(32)}

	_, err := embedBatch(context.Background(), emb, words, []int{0, 1, 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 2 embeddings for 3 words")
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index", "vocab.gob.checkpoint")
	cp := &checkpoint{
		Words:      []string{"ocean", "river"},
		Embeddings: [][]float32{{1, 0}, nil},
		Completed:  map[int]bool{0: true},
		ModelInfo:  "simple-trigram-2",
		Snapshot:   42,
	}
	require.NoError(t, saveCheckpoint(path, cp))

	got, err := loadCheckpoint(path)
	require.NoError(t, err)
	assert.Equal(t, cp.Words, got.Words)
	assert.Equal(t, cp.Completed, got.Completed)
	assert.Equal(t, uint64(42), got.Snapshot)
	assert.NoFileExists(t, path+".tmp")
}

func TestLoadCheckpoint_Missing(t *testing.T) {
	cp, err := loadCheckpoint(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Nil(t, cp)
}
