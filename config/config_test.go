package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "paperchat.db", cfg.Storage.Path)
	assert.Equal(t, int64(50<<20), cfg.Server.UploadLimit)
	assert.Equal(t, "http://localhost:11434/v1", cfg.AI.EmbeddingHost)
	assert.Equal(t, "GROQ_API_KEY", cfg.AI.APIKeyEnv)
	assert.Equal(t, 300, cfg.Chunker.Size)
	assert.Equal(t, 20, cfg.Chunker.Overlap)
	assert.Equal(t, 1000, cfg.Chunker.MaxChunks)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.InDelta(t, 0.60, cfg.Retrieval.MinSimilarity, 0.001)
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  addr: \":9000\"\nchunker:\n  size: 500\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.Chunker.Size)
	// Unspecified fields fall back to defaults.
	assert.Equal(t, 20, cfg.Chunker.Overlap)
	assert.Equal(t, "paperchat.db", cfg.Storage.Path)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.AI.ChatModel)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not: valid"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Server.Addr = ":7777"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", loaded.Server.Addr)
}

func TestProviderConfigReadsKeyFromEnv(t *testing.T) {
	t.Setenv("PAPERCHAT_TEST_KEY", "sk-test")

	aiCfg := &AIConfig{
		EmbeddingHost:  "http://localhost:11434/v1",
		ChatHost:       "https://api.groq.com/openai/v1",
		EmbeddingModel: "all-minilm",
		ChatModel:      "llama-3.1-8b-instant",
		APIKeyEnv:      "PAPERCHAT_TEST_KEY",
		Temperature:    0.5,
		MaxTokens:      500,
	}

	provider := aiCfg.ProviderConfig()
	assert.Equal(t, "sk-test", provider.APIKey)
	assert.Equal(t, "all-minilm", provider.EmbeddingModel)
	assert.InDelta(t, 0.5, provider.Temperature, 0.001)
	assert.Equal(t, 500, provider.MaxTokens)
}
