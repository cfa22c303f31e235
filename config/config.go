// Package config loads the application configuration from YAML.
//
// A missing config file is not an error: defaults are returned so the tool
// works out of the box against a local embedding service and the hosted chat
// API.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lamplight-ai/paperchat/ai"
	"github.com/lamplight-ai/paperchat/extract"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	UploadLimit int64  `yaml:"upload_limit,omitempty"`
}

// StorageConfig configures the document store location.
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory,omitempty"`
}

// AIConfig configures the embedding and chat services. The API key is read
// from the environment variable named by APIKeyEnv, never from the file.
type AIConfig struct {
	EmbeddingHost  string  `yaml:"embedding_host"`
	ChatHost       string  `yaml:"chat_host"`
	EmbeddingModel string  `yaml:"embedding_model"`
	ChatModel      string  `yaml:"chat_model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
}

// ChunkerConfig configures how extracted text is split.
type ChunkerConfig struct {
	Size      int `yaml:"size"`
	Overlap   int `yaml:"overlap"`
	MaxChunks int `yaml:"max_chunks"`
}

// RetrievalConfig configures context retrieval for question answering.
type RetrievalConfig struct {
	TopK          int     `yaml:"top_k"`
	MinSimilarity float32 `yaml:"min_similarity"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	AI        AIConfig        `yaml:"ai"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ProviderConfig converts the AI section into a provider configuration,
// resolving the API key from the environment.
func (c *AIConfig) ProviderConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.EmbeddingHost),
		ai.WithChatHost(c.ChatHost),
		ai.WithEmbeddingModel(c.EmbeddingModel),
		ai.WithChatModel(c.ChatModel),
		ai.WithAPIKey(os.Getenv(c.APIKeyEnv)),
		ai.WithTemperature(c.Temperature),
		ai.WithMaxTokens(c.MaxTokens),
	)
}

func defaultConfig() *AppConfig {
	defaults := ai.DefaultConfig()
	return &AppConfig{
		Server:  ServerConfig{Addr: ":8080", UploadLimit: extract.MaxFileSize},
		Storage: StorageConfig{Path: "paperchat.db"},
		AI: AIConfig{
			EmbeddingHost:  defaults.EmbeddingHost,
			ChatHost:       defaults.ChatHost,
			EmbeddingModel: defaults.EmbeddingModel,
			ChatModel:      defaults.ChatModel,
			APIKeyEnv:      "GROQ_API_KEY",
			Temperature:    defaults.Temperature,
			MaxTokens:      defaults.MaxTokens,
		},
		Chunker:   ChunkerConfig{Size: 300, Overlap: 20, MaxChunks: 1000},
		Retrieval: RetrievalConfig{TopK: 3, MinSimilarity: 0.60},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	defaults := defaultConfig()

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.UploadLimit == 0 {
		cfg.Server.UploadLimit = defaults.Server.UploadLimit
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = defaults.Storage.Path
	}
	if cfg.AI.EmbeddingHost == "" {
		cfg.AI.EmbeddingHost = defaults.AI.EmbeddingHost
	}
	if cfg.AI.ChatHost == "" {
		cfg.AI.ChatHost = defaults.AI.ChatHost
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = defaults.AI.EmbeddingModel
	}
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = defaults.AI.ChatModel
	}
	if cfg.AI.APIKeyEnv == "" {
		cfg.AI.APIKeyEnv = defaults.AI.APIKeyEnv
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = defaults.AI.Temperature
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = defaults.AI.MaxTokens
	}
	if cfg.Chunker.Size == 0 {
		cfg.Chunker.Size = defaults.Chunker.Size
	}
	if cfg.Chunker.Overlap == 0 {
		cfg.Chunker.Overlap = defaults.Chunker.Overlap
	}
	if cfg.Chunker.MaxChunks == 0 {
		cfg.Chunker.MaxChunks = defaults.Chunker.MaxChunks
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = defaults.Retrieval.TopK
	}
	if cfg.Retrieval.MinSimilarity == 0 {
		cfg.Retrieval.MinSimilarity = defaults.Retrieval.MinSimilarity
	}
}
