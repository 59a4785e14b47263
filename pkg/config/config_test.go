package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test from an empty directory so no stray
// spymaster.yaml or .env is picked up.
func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "vocab.txt", cfg.Vocab.Path)
	assert.Equal(t, 10000, cfg.Vocab.Size)
	assert.Equal(t, ProviderONNX, cfg.Embedder.Provider)
	assert.Equal(t, "KnightsAnalytics/all-MiniLM-L6-v2", cfg.Embedder.Model)
	assert.Equal(t, 5, cfg.Clue.TopN)
	assert.False(t, cfg.Clue.Steer)
	assert.InDelta(t, 0.5, cfg.Clue.Weights.Unrelated, 1e-6)
	assert.InDelta(t, 1.0, cfg.Clue.Weights.Enemy, 1e-6)
	assert.InDelta(t, 3.0, cfg.Clue.Weights.Assassin, 1e-6)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Env(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SPYMASTER_EMBEDDER_PROVIDER", "openai")
	t.Setenv("SPYMASTER_CLUE_TOPN", "12")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Embedder.Provider)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.Equal(t, 12, cfg.Clue.TopN)
	assert.Equal(t, "sk-test", cfg.Embedder.OpenAIKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	chdirTemp(t)
	yaml := "vocab:\n  path: words.txt\nembedder:\n  provider: simple\nclue:\n  steer: true\n"
	require.NoError(t, os.WriteFile("spymaster.yaml", []byte(yaml), 0644))

	cfg, err := Load(nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "words.txt", cfg.Vocab.Path)
	assert.Equal(t, ProviderSimple, cfg.Embedder.Provider)
	assert.True(t, cfg.Clue.Steer)
}

func TestLoad_Flags(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SPYMASTER_CLUE_TOPN", "12")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("top", 5, "")
	flags.String("provider", "", "")
	require.NoError(t, flags.Parse([]string{"--top", "3"}))

	cfg, err := Load(flags, map[string]string{
		"clue.topn":         "top",
		"embedder.provider": "provider",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Clue.TopN)
	// unchanged flags fall back to the default
	assert.Equal(t, ProviderONNX, cfg.Embedder.Provider)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	t.Setenv("OPENAI_API_KEY", "")

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"unknown provider", func(c *Config) { c.Embedder.Provider = "word2vec" }, true},
		{"openai without key", func(c *Config) { c.Embedder.Provider = ProviderOpenAI }, true},
		{"zero vocab", func(c *Config) { c.Vocab.Size = 0 }, true},
		{"empty vocab path", func(c *Config) { c.Vocab.Path = "" }, true},
		{"negative cache", func(c *Config) { c.Embedder.CacheSize = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(nil, nil)
			require.NoError(t, err)
			tt.mutate(cfg)

			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
