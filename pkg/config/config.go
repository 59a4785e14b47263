package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Embedding providers
const (
	ProviderONNX        = "onnx"
	ProviderOpenAI      = "openai"
	ProviderOllama      = "ollama"
	ProviderHuggingFace = "huggingface"
	ProviderSimple      = "simple"
)

// VocabConfig locates the vocabulary file and its download source
type VocabConfig struct {
	Path string `mapstructure:"path"`
	Size int    `mapstructure:"size"`
	URL  string `mapstructure:"url"`
}

// EmbedderConfig selects and configures the embedding provider
type EmbedderConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	CacheSize  int    `mapstructure:"cache_size"`
	OllamaURL  string `mapstructure:"ollama_url"`
	HFURL      string `mapstructure:"hf_url"`
	OpenAIURL  string `mapstructure:"openai_url"`
	ModelDir   string `mapstructure:"model_dir"`
	OrtLibrary string `mapstructure:"ort_library"`

	// Secrets come from their conventional variables, not the config file.
	OpenAIKey string `mapstructure:"-"`
	HFToken   string `mapstructure:"-"`
}

// IndexConfig locates the precomputed vocabulary embeddings
type IndexConfig struct {
	Path string `mapstructure:"path"`
}

// WeightsConfig holds the steering weight per board-word group
type WeightsConfig struct {
	Unrelated float32 `mapstructure:"unrelated"`
	Enemy     float32 `mapstructure:"enemy"`
	Assassin  float32 `mapstructure:"assassin"`
}

// ClueConfig controls clue ranking
type ClueConfig struct {
	TopN    int           `mapstructure:"topn"`
	Steer   bool          `mapstructure:"steer"`
	Weights WeightsConfig `mapstructure:"weights"`
}

// LogConfig sets the diagnostic log level
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Config is the complete spymaster configuration
type Config struct {
	Vocab    VocabConfig    `mapstructure:"vocab"`
	Embedder EmbedderConfig `mapstructure:"embedder"`
	Index    IndexConfig    `mapstructure:"index"`
	Clue     ClueConfig     `mapstructure:"clue"`
	Log      LogConfig      `mapstructure:"log"`
}

// Load builds the configuration from defaults, an optional spymaster.yaml,
// SPYMASTER_* environment variables and, if given, command-line flags.
// bindings maps config keys to flag names, e.g. "clue.topn" -> "top".
func Load(flags *pflag.FlagSet, bindings map[string]string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("spymaster")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SPYMASTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if flags != nil {
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.Embedder.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.Embedder.HFToken = os.Getenv("HF_TOKEN")

	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = DefaultModel(cfg.Embedder.Provider)
	}

	return &cfg, nil
}

// Validate reports configuration that cannot produce a working ranker
func (c *Config) Validate() error {
	switch c.Embedder.Provider {
	case ProviderONNX, ProviderOllama, ProviderHuggingFace, ProviderSimple:
	case ProviderOpenAI:
		if c.Embedder.OpenAIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedder.Provider)
	}

	if c.Vocab.Size < 1 {
		return fmt.Errorf("vocab.size must be at least 1, got %d", c.Vocab.Size)
	}
	if c.Vocab.Path == "" {
		return fmt.Errorf("vocab.path is required")
	}
	if c.Embedder.CacheSize < 0 {
		return fmt.Errorf("embedder.cache_size must not be negative")
	}

	return nil
}

// DefaultModel returns the model used by a provider when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case ProviderOpenAI:
		return "text-embedding-3-small"
	case ProviderOllama:
		return "all-minilm"
	case ProviderHuggingFace:
		return "sentence-transformers/all-MiniLM-L6-v2"
	case ProviderONNX:
		return "KnightsAnalytics/all-MiniLM-L6-v2"
	default:
		return ""
	}
}

func setDefaults(v *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	v.SetDefault("vocab.path", "vocab.txt")
	v.SetDefault("vocab.size", 10000)
	v.SetDefault("vocab.url", "https://raw.githubusercontent.com/first20hours/google-10000-english/master/20k.txt")

	v.SetDefault("embedder.provider", ProviderONNX)
	v.SetDefault("embedder.model", "")
	v.SetDefault("embedder.cache_size", 20000)
	v.SetDefault("embedder.ollama_url", "http://localhost:11434")
	v.SetDefault("embedder.hf_url", "")
	v.SetDefault("embedder.openai_url", "")
	v.SetDefault("embedder.model_dir", filepath.Join(homeDir, ".spymaster", "models"))
	v.SetDefault("embedder.ort_library", "")

	v.SetDefault("index.path", filepath.Join("embeddings", "vocab.gob"))

	v.SetDefault("clue.topn", 5)
	v.SetDefault("clue.steer", false)
	v.SetDefault("clue.weights.unrelated", 0.5)
	v.SetDefault("clue.weights.enemy", 1.0)
	v.SetDefault("clue.weights.assassin", 3.0)

	v.SetDefault("log.level", "info")
}
