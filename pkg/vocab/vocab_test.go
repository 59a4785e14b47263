package vocab

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wordList = `the
of
and
Queen
castle
it's
x1y2
sword
  bishop

über
knight
`

func TestFilter(t *testing.T) {
	words, err := Filter(strings.NewReader(wordList), 100)
	require.NoError(t, err)

	assert.Equal(t, []string{"the", "and", "queen", "castle", "sword", "bishop", "über", "knight"}, words)
}

func TestFilter_Truncates(t *testing.T) {
	words, err := Filter(strings.NewReader(wordList), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"the", "and", "queen"}, words)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte("queen\n\n  castle \nsword"), 0644))

	v, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, v.Len())
	assert.Equal(t, []string{"queen", "castle", "sword"}, v.Words())
	assert.Equal(t, "castle", v.Word(1))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestVocabulary_Immutable(t *testing.T) {
	src := []string{"queen", "castle"}
	v := New(src)
	src[0] = "changed"

	words := v.Words()
	words[1] = "changed"

	assert.Equal(t, []string{"queen", "castle"}, v.Words())
}

func TestVocabulary_Snapshot(t *testing.T) {
	a := New([]string{"queen", "castle"})
	b := New([]string{"queen", "castle"})
	c := New([]string{"castle", "queen"})
	d := New([]string{"queenc", "astle"})

	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.NotEqual(t, a.Snapshot(), c.Snapshot())
	assert.NotEqual(t, a.Snapshot(), d.Snapshot())
}

func TestEnsure_Downloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(wordList))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "data", "vocab.txt")
	f := &Fetcher{URL: srv.URL, Size: 4, Client: srv.Client()}

	require.NoError(t, f.Ensure(context.Background(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "the\nand\nqueen\ncastle", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestEnsure_ExistingFileSkipsNetwork(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte("queen\n"), 0644))

	f := &Fetcher{URL: srv.URL, Size: 10, Client: srv.Client()}
	require.NoError(t, f.Ensure(context.Background(), path))

	assert.Zero(t, atomic.LoadInt32(&hits))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "queen\n", string(data))
}

func TestEnsure_FetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "vocab.txt")
	f := &Fetcher{URL: srv.URL, Size: 10, Client: srv.Client()}

	err := f.Ensure(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteWords_RenameFailureRemovesTemp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	// A non-empty directory at path makes the final rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(path, "occupied"), 0755))

	err := writeWords(path, []string{"queen", "castle"})
	require.Error(t, err)
	assert.NoFileExists(t, path+".tmp")
}
