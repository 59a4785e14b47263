package vocab

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/perbu/spymaster/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Fetcher downloads the common-words list when the vocabulary file is missing
type Fetcher struct {
	URL    string
	Size   int
	Client *http.Client
	Logger logrus.FieldLogger
}

// NewFetcher creates a Fetcher with the default URL and size
func NewFetcher(logger logrus.FieldLogger) *Fetcher {
	return &Fetcher{
		URL:    DefaultURL,
		Size:   DefaultSize,
		Client: http.DefaultClient,
		Logger: logger,
	}
}

// Ensure makes sure a vocabulary file exists at path.
// An existing file is left untouched and no request is made.
func (f *Fetcher) Ensure(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking %s: %w", path, err)
	}

	log := f.logger().WithFields(logrus.Fields{"url": f.URL, "size": f.Size})
	log.Info("downloading vocabulary word list")

	tmp, err := f.download(ctx)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	src, err := os.Open(tmp)
	if err != nil {
		return err
	}
	words, err := Filter(src, f.Size)
	src.Close()
	if err != nil {
		return fmt.Errorf("filtering word list: %w", err)
	}

	if err := writeWords(path, words); err != nil {
		return err
	}

	log.WithField("words", len(words)).Infof("saved vocabulary to %s", path)
	return nil
}

// download streams the remote list into a temporary file and returns its path
func (f *Fetcher) download(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching word list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching word list: unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "common_words_*.txt")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("downloading word list: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return tmp.Name(), nil
}

func (f *Fetcher) logger() logrus.FieldLogger {
	if f.Logger == nil {
		return logging.Discard()
	}
	return f.Logger
}

// writeWords writes one word per line, replacing path atomically
func writeWords(path string, words []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(strings.Join(words, "\n")), 0644); err != nil {
		return fmt.Errorf("writing vocabulary: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing vocabulary: %w", err)
	}
	return nil
}
