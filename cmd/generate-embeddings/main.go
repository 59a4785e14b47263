package main

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/perbu/spymaster/pkg/clue"
	"github.com/perbu/spymaster/pkg/config"
	"github.com/perbu/spymaster/pkg/embedder"
	"github.com/perbu/spymaster/pkg/logging"
	"github.com/perbu/spymaster/pkg/vocab"
	"github.com/spf13/pflag"
)

type checkpoint struct {
	Words      []string
	Embeddings [][]float32
	Completed  map[int]bool // Track which words are done
	ModelInfo  string
	Snapshot   uint64
}

func checkpointPath(indexPath string) string {
	return indexPath + ".checkpoint"
}

func loadCheckpoint(path string) (*checkpoint, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No checkpoint exists
		}
		return nil, err
	}
	defer file.Close()

	var cp checkpoint
	decoder := gob.NewDecoder(file)
	if err := decoder.Decode(&cp); err != nil {
		return nil, err
	}

	return &cp, nil
}

func saveCheckpoint(path string, cp *checkpoint) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	file, err := os.Create(path + ".tmp")
	if err != nil {
		return err
	}

	encoder := gob.NewEncoder(file)
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		return err
	}

	if err := file.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(path+".tmp", path)
}

// embedBatch embeds the words at idxs, one vector per index in order
func embedBatch(ctx context.Context, emb embedder.Embedder, words []string, idxs []int) ([][]float32, error) {
	texts := make([]string, len(idxs))
	for j, idx := range idxs {
		texts[j] = words[idx]
	}

	vecs, err := emb.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("batch starting at %q: %w", texts[0], err)
	}
	if len(vecs) != len(idxs) {
		return nil, fmt.Errorf("batch starting at %q: got %d embeddings for %d words", texts[0], len(vecs), len(idxs))
	}
	return vecs, nil
}

func main() {
	flags := pflag.NewFlagSet("generate-embeddings", pflag.ExitOnError)
	flags.String("vocab", "vocab.txt", "vocabulary file, downloaded if missing")
	flags.String("provider", config.ProviderONNX, "embedding provider")
	flags.String("model", "", "embedding model (provider default if empty)")
	flags.String("index", "embeddings/vocab.gob", "output index file")
	batchSize := flags.Int("batch", 256, "words per embedding request")
	workers := flags.Int("workers", 4, "concurrent embedding requests")
	_ = flags.Parse(os.Args[1:])
	if *workers < 1 {
		*workers = 1
	}

	cfg, err := config.Load(flags, map[string]string{
		"vocab.path":        "vocab",
		"embedder.provider": "provider",
		"embedder.model":    "model",
		"index.path":        "index",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	// No cache: every word is embedded exactly once.
	cfg.Embedder.CacheSize = 0

	log := logging.New(cfg.Log.Level)
	ctx := context.Background()
	cpPath := checkpointPath(cfg.Index.Path)

	fmt.Println("Spymaster Vocabulary Embedding Tool")
	fmt.Println("===================================")
	fmt.Println()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	var cpMutex sync.Mutex
	var currentCP *checkpoint

	go func() {
		<-sigChan
		fmt.Println("\n\n⚠ Interrupt received, saving checkpoint...")
		cpMutex.Lock()
		if currentCP != nil {
			if err := saveCheckpoint(cpPath, currentCP); err != nil {
				fmt.Fprintf(os.Stderr, "Error saving checkpoint: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("✓ Checkpoint saved. Run again to resume.")
		}
		cpMutex.Unlock()
		os.Exit(0)
	}()

	// Step 1: Load vocabulary
	fmt.Println("Step 1: Loading vocabulary...")
	fetcher := &vocab.Fetcher{URL: cfg.Vocab.URL, Size: cfg.Vocab.Size, Logger: log}
	if err := fetcher.Ensure(ctx, cfg.Vocab.Path); err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching vocabulary: %v\n", err)
		os.Exit(1)
	}
	v, err := vocab.Load(cfg.Vocab.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading vocabulary: %v\n", err)
		os.Exit(1)
	}
	words := v.Words()
	fmt.Printf("  ✓ Loaded %d words from %s\n\n", len(words), cfg.Vocab.Path)

	// Step 2: Initialize embedder
	fmt.Println("Step 2: Initializing embedder...")
	emb, err := embedder.New(ctx, cfg.Embedder, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing embedder: %v\n", err)
		os.Exit(1)
	}
	defer embedder.Close(emb)
	fmt.Printf("  ✓ Embedder initialized (%s)\n\n", emb.ModelInfo())

	// Step 2.5: Check for existing checkpoint
	var cp *checkpoint
	existingCP, err := loadCheckpoint(cpPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading checkpoint: %v\n", err)
		fmt.Println("Starting from scratch...")
	} else if existingCP != nil {
		fmt.Printf("Found checkpoint: %d/%d embeddings already generated\n", len(existingCP.Completed), len(words))

		// Verify checkpoint matches current vocabulary and model
		if existingCP.Snapshot != v.Snapshot() || existingCP.ModelInfo != emb.ModelInfo() {
			fmt.Println("  ⚠ Checkpoint doesn't match current vocabulary/model, starting fresh")
		} else {
			cp = existingCP
			fmt.Println("  ✓ Resuming from checkpoint")
		}
	}

	// Initialize new checkpoint if needed
	if cp == nil {
		cp = &checkpoint{
			Words:      words,
			Embeddings: make([][]float32, len(words)),
			Completed:  make(map[int]bool),
			ModelInfo:  emb.ModelInfo(),
			Snapshot:   v.Snapshot(),
		}
	}

	// Make checkpoint available to signal handler
	cpMutex.Lock()
	currentCP = cp
	cpMutex.Unlock()

	// Step 3: Generate embeddings in batches with progress and checkpointing
	fmt.Println("Step 3: Generating embeddings...")

	// Build batches of missing words (to avoid concurrent map read)
	var batches [][]int
	var batch []int
	for i := range words {
		if cp.Completed[i] {
			continue
		}
		batch = append(batch, i)
		if len(batch) == *batchSize {
			batches = append(batches, batch)
			batch = nil
		}
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}

	if len(batches) == 0 {
		fmt.Println("  ✓ All embeddings already generated!")
	} else {
		fmt.Printf("  %d batches of up to %d words, %d concurrent requests\n", len(batches), *batchSize, *workers)

		completed := len(cp.Completed)
		saveCounter := 0

		var wg sync.WaitGroup
		errChan := make(chan error, len(batches))
		sem := make(chan struct{}, *workers) // Limit concurrent requests

		for _, idxs := range batches {
			wg.Add(1)
			sem <- struct{}{}
			go func(idxs []int) {
				defer wg.Done()
				defer func() { <-sem }()

				vecs, err := embedBatch(ctx, emb, words, idxs)
				if err != nil {
					errChan <- err
					return
				}

				cpMutex.Lock()
				defer cpMutex.Unlock()

				for j, idx := range idxs {
					cp.Embeddings[idx] = vecs[j]
					cp.Completed[idx] = true
				}
				completed += len(idxs)
				saveCounter++

				fmt.Printf("\r  Progress: %d/%d (%.1f%%)", completed, len(words), float64(completed)/float64(len(words))*100)

				// Save checkpoint every 10 batches
				if saveCounter >= 10 {
					saveCounter = 0
					if err := saveCheckpoint(cpPath, cp); err != nil {
						fmt.Fprintf(os.Stderr, "\nWarning: Failed to save checkpoint: %v\n", err)
					}
				}
			}(idxs)
		}

		wg.Wait()
		close(errChan)
		fmt.Println()

		var embedErrors []error
		for err := range errChan {
			embedErrors = append(embedErrors, err)
		}

		if len(embedErrors) > 0 {
			fmt.Fprintf(os.Stderr, "\n⚠ Encountered %d error(s) during embedding:\n", len(embedErrors))
			for _, err := range embedErrors {
				fmt.Fprintf(os.Stderr, "  - %v\n", err)
			}
			fmt.Println("\nProgress saved to checkpoint. Run again to resume.")
			cpMutex.Lock()
			if saveErr := saveCheckpoint(cpPath, cp); saveErr != nil {
				fmt.Fprintf(os.Stderr, "Error saving checkpoint: %v\n", saveErr)
			}
			cpMutex.Unlock()
			os.Exit(1)
		}

		fmt.Printf("  ✓ Generated %d embeddings\n\n", len(words))
	}

	// Step 4: Save final index
	fmt.Println("Step 4: Saving index...")
	idx, err := clue.NewIndex(emb, v, cp.Embeddings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building index: %v\n", err)
		os.Exit(1)
	}
	if err := idx.Matches(emb, v); err != nil {
		fmt.Fprintf(os.Stderr, "Error validating index: %v\n", err)
		os.Exit(1)
	}
	if err := clue.SaveIndex(cfg.Index.Path, idx); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving index: %v\n", err)
		os.Exit(1)
	}

	if info, err := os.Stat(cfg.Index.Path); err == nil {
		fmt.Printf("  ✓ Saved to %s (%.2f MB)\n\n", cfg.Index.Path, float64(info.Size())/(1024*1024))
	}

	// Clean up checkpoint file
	if err := os.Remove(cpPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Could not remove checkpoint file: %v\n", err)
	}

	fmt.Println("Done! Run 'spymaster clue <words>' to use the index.")
}
