package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVocab = "ocean\nriver\nwater\nfire\nflame\nstone\nforest\nkingdom\nviking\n"

// inTempDir runs the test from a directory holding only a vocabulary file
func inTempDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/vocab.txt", []byte(testVocab), 0644))
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer

	root := newRootCmd()
	root.SetArgs(append([]string{"--provider", "simple", "--log-level", "error"}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func clueLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "→ ") {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestClueCommand(t *testing.T) {
	inTempDir(t)

	out, err := run(t, "", "clue", "--top", "3", "King")
	require.NoError(t, err)

	assert.Contains(t, out, "💡 Suggested Clues:")
	lines := clueLines(out)
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.NotContains(t, line, "kingdom")
		assert.NotContains(t, line, "viking")
		assert.Regexp(t, `^→ [a-z]+ \(score: -?\d\.\d{3}\)$`, line)
	}
}

func TestClueCommand_RequiresWords(t *testing.T) {
	inTempDir(t)

	_, err := run(t, "", "clue")
	assert.Error(t, err)
}

func TestClueCommand_Steer(t *testing.T) {
	inTempDir(t)

	out, err := run(t, "", "clue", "--steer", "--enemy", "water,fire", "--assassin", "stone", "--top", "10", "river")
	require.NoError(t, err)

	lines := clueLines(out)
	assert.Len(t, lines, 5, "river, water, fire and stone are board words")
}

func TestPlayCommand(t *testing.T) {
	inTempDir(t)

	out, err := run(t, "   \nocean river\n", "play", "--top", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "❌ no valid team words")
	assert.Len(t, clueLines(out), 2)
	assert.Equal(t, 3, strings.Count(out, "Your team words: "))
}

func TestPlayCommand_SteerPrompts(t *testing.T) {
	inTempDir(t)

	out, err := run(t, "ocean\n\nwater\nfire\n", "play", "--steer", "--top", "10")
	require.NoError(t, err)

	assert.Contains(t, out, "Enemy words: ")
	assert.Contains(t, out, "Assassin word: ")
	for _, line := range clueLines(out) {
		assert.NotContains(t, line, "ocean")
		assert.NotContains(t, line, "water")
		assert.NotContains(t, line, "fire")
	}
}

func TestVocabCommand(t *testing.T) {
	inTempDir(t)

	out, err := run(t, "", "vocab")
	require.NoError(t, err)

	assert.Contains(t, out, "vocab.txt: 9 words")
}

func TestUnknownProvider(t *testing.T) {
	inTempDir(t)

	_, err := run(t, "", "vocab", "--provider", "word2vec")
	assert.Error(t, err)
}
