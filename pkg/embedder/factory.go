package embedder

import (
	"context"
	"fmt"
	"io"

	"github.com/perbu/spymaster/pkg/config"
	"github.com/sirupsen/logrus"
)

// simpleDimension matches all-MiniLM-L6-v2 so indexes look alike
const simpleDimension = 384

// New builds the configured embedding provider, loads its model and wraps it
// in an LRU cache when cfg.CacheSize is positive.
func New(ctx context.Context, cfg config.EmbedderConfig, logger logrus.FieldLogger) (Embedder, error) {
	log := logger.WithFields(logrus.Fields{"provider": cfg.Provider, "model": cfg.Model})

	var (
		emb Embedder
		err error
	)

	switch cfg.Provider {
	case config.ProviderONNX:
		var onnx *ONNXEmbedder
		onnx, err = NewONNXEmbedder(ONNXConfig{
			Repo:           cfg.Model,
			CacheDir:       cfg.ModelDir,
			OrtLibraryPath: cfg.OrtLibrary,
		})
		if err != nil {
			return nil, err
		}
		log.Info("loading embedding model")
		if err = onnx.EnsureModel(ctx); err != nil {
			return nil, err
		}
		emb = onnx
	case config.ProviderOpenAI:
		emb, err = NewOpenAIEmbedder(cfg.OpenAIKey, cfg.Model, cfg.OpenAIURL)
		if err != nil {
			return nil, err
		}
	case config.ProviderOllama:
		emb = NewOllamaEmbedder(cfg.OllamaURL, cfg.Model)
	case config.ProviderHuggingFace:
		emb = NewHuggingFaceEmbedder(cfg.HFURL, cfg.Model, cfg.HFToken)
	case config.ProviderSimple:
		emb = NewSimpleEmbedder(simpleDimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	log.WithField("model_info", emb.ModelInfo()).Info("embedder ready")

	if cfg.CacheSize > 0 {
		cached, err := NewCachedEmbedder(emb, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		return cached, nil
	}
	return emb, nil
}

// Close releases resources held by e or the embedder it wraps
func Close(e Embedder) error {
	if c, ok := e.(*CachedEmbedder); ok {
		e = c.Unwrap()
	}
	if closer, ok := e.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
