package vocab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// DefaultURL is the common-words list used when no vocabulary file exists yet.
const DefaultURL = "https://raw.githubusercontent.com/first20hours/google-10000-english/master/20k.txt"

// DefaultSize is the number of words kept from the downloaded list.
const DefaultSize = 10000

// Vocabulary is the ordered, immutable list of candidate clue words
type Vocabulary struct {
	words    []string
	snapshot uint64
}

// New creates a Vocabulary from a copy of words, preserving order
func New(words []string) *Vocabulary {
	w := make([]string, len(words))
	copy(w, words)

	h := xxhash.New()
	for _, word := range w {
		_, _ = h.WriteString(word)
		_, _ = h.WriteString("\n")
	}

	return &Vocabulary{words: w, snapshot: h.Sum64()}
}

// Len returns the number of words
func (v *Vocabulary) Len() int {
	return len(v.words)
}

// Word returns the word at index i
func (v *Vocabulary) Word(i int) string {
	return v.words[i]
}

// Words returns a copy of the word list
func (v *Vocabulary) Words() []string {
	w := make([]string, len(v.words))
	copy(w, v.words)
	return w
}

// Snapshot identifies the exact ordered contents of the vocabulary.
// Two vocabularies with the same words in the same order share a snapshot.
func (v *Vocabulary) Snapshot() uint64 {
	return v.snapshot
}

// Load reads a vocabulary file, one word per line.
// Surrounding whitespace is stripped and blank lines are skipped.
func Load(path string) (*Vocabulary, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary: %w", err)
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return New(words), nil
}

// Filter reads a newline-delimited word list and keeps the first size
// entries that are purely alphabetic and longer than two letters,
// lower-cased, in source order.
func Filter(r io.Reader, size int) ([]string, error) {
	var words []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if len(words) >= size {
			break
		}
		word := strings.TrimSpace(scanner.Text())
		if !isAlpha(word) || utf8.RuneCountInString(word) <= 2 {
			continue
		}
		words = append(words, strings.ToLower(word))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return words, nil
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
