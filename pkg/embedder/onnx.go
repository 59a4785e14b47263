package embedder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

const (
	// DefaultONNXModel is the ONNX export of sentence-transformers/all-MiniLM-L6-v2
	DefaultONNXModel = "KnightsAnalytics/all-MiniLM-L6-v2"

	miniLMDimension = 384
)

// ONNXEmbedder runs a sentence-transformers model locally through ONNX Runtime
type ONNXEmbedder struct {
	repo           string
	cacheDir       string
	modelPath      string
	ortLibraryPath string
	session        *hugot.Session
	pipeline       *pipelines.FeatureExtractionPipeline
	mu             sync.RWMutex
	loaded         bool
	dim            int
}

// ONNXConfig configures the local embedder
type ONNXConfig struct {
	// Repo is the Hugging Face repository holding the ONNX export
	Repo           string
	CacheDir       string
	OrtLibraryPath string
}

// NewONNXEmbedder prepares the embedder. The model is not loaded until EnsureModel.
func NewONNXEmbedder(cfg ONNXConfig) (*ONNXEmbedder, error) {
	if cfg.Repo == "" {
		cfg.Repo = DefaultONNXModel
	}

	if cfg.CacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		cfg.CacheDir = filepath.Join(home, ".spymaster", "models")
	}

	if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &ONNXEmbedder{
		repo:           cfg.Repo,
		cacheDir:       cfg.CacheDir,
		modelPath:      filepath.Join(cfg.CacheDir, strings.ReplaceAll(cfg.Repo, "/", "_")),
		ortLibraryPath: cfg.OrtLibraryPath,
		dim:            miniLMDimension,
	}, nil
}

// Embed generates an embedding for a single text
func (o *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return results[0], nil
}

// EmbedBatch runs inference over texts in one pipeline call
func (o *ONNXEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.loaded || o.pipeline == nil {
		return nil, fmt.Errorf("model %s not loaded", o.repo)
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	output, err := o.pipeline.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	return unitVectors(output.Embeddings, len(texts))
}

// EnsureModel downloads the model if needed and loads it. Safe to call twice.
func (o *ONNXEmbedder) EnsureModel(_ context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.loaded {
		return nil
	}

	if _, err := os.Stat(o.modelPath); os.IsNotExist(err) {
		modelPath, err := hugot.DownloadModel(o.repo, o.cacheDir, hugot.NewDownloadOptions())
		if err != nil {
			return fmt.Errorf("download model: %w", err)
		}
		o.modelPath = modelPath
	}

	if err := o.loadModel(); err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	o.loaded = true
	return nil
}

func (o *ONNXEmbedder) loadModel() error {
	sessionOpts := []options.WithOption{
		options.WithIntraOpNumThreads(runtime.NumCPU()),
	}
	if o.ortLibraryPath != "" {
		sessionOpts = append(sessionOpts, options.WithOnnxLibraryPath(o.ortLibraryPath))
	}

	session, err := hugot.NewORTSession(sessionOpts...)
	if err != nil {
		return fmt.Errorf("create ORT session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: o.modelPath,
		Name:      "spymaster-embeddings",
		Options: []hugot.FeatureExtractionOption{
			pipelines.WithNormalization(),
		},
	})
	if err != nil {
		session.Destroy()
		return fmt.Errorf("create pipeline: %w", err)
	}

	o.session = session
	o.pipeline = pipeline
	return nil
}

// Close releases the ONNX Runtime session
func (o *ONNXEmbedder) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		o.session.Destroy()
		o.session = nil
	}
	o.pipeline = nil
	o.loaded = false
	return nil
}

// Dimension returns the embedding dimension
func (o *ONNXEmbedder) Dimension() int {
	return o.dim
}

// ModelInfo returns model information
func (o *ONNXEmbedder) ModelInfo() string {
	return "onnx-" + o.repo
}
