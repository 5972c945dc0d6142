package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Addr               string   `yaml:"addr"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
}

// OpenAIConfig configures the embedding and completion clients. API keys
// are read from the environment, never from the config file.
type OpenAIConfig struct {
	APIKeyEnv      string  `yaml:"api_key_env"`
	Model          string  `yaml:"model"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Temperature    float64 `yaml:"temperature"`
	BatchSize      int     `yaml:"batch_size"`
}

// QdrantConfig contains connection details for the Qdrant vector index.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Collection  string `yaml:"collection"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// ChunkerConfig configures how document sections are split into chunks.
type ChunkerConfig struct {
	ChunkSize         int   `yaml:"chunk_size"`
	OverlapSize       int   `yaml:"overlap_size"`
	RespectBoundaries *bool `yaml:"respect_boundaries"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Qdrant  QdrantConfig  `yaml:"qdrant"`
	Chunker ChunkerConfig `yaml:"chunker"`
}

// OpenAIKey resolves the OpenAI API key from the environment.
func (c *AppConfig) OpenAIKey() string { return os.Getenv(c.OpenAI.APIKeyEnv) }

// QdrantKey resolves the Qdrant API key from the environment.
func (c *AppConfig) QdrantKey() string { return os.Getenv(c.Qdrant.APIKeyEnv) }

// BoundariesEnabled reports whether chunk boundary trimming is enabled
// (default true).
func (c *ChunkerConfig) BoundariesEnabled() bool {
	if c.RespectBoundaries == nil {
		return true
	}
	return *c.RespectBoundaries
}

// Load reads a config from a specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
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

// LoadDefault tries ./config.yaml first, then ~/.config/bookrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/bookrag/config.yaml and
// returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
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

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "bookrag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:8000"}
	}
	if cfg.Server.RateLimitPerMinute == 0 {
		cfg.Server.RateLimitPerMinute = 60
	}
	if cfg.OpenAI.APIKeyEnv == "" {
		cfg.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4o-mini"
	}
	if cfg.OpenAI.EmbeddingModel == "" {
		cfg.OpenAI.EmbeddingModel = "text-embedding-ada-002"
	}
	if cfg.OpenAI.Temperature == 0 {
		cfg.OpenAI.Temperature = 0.1
	}
	if cfg.OpenAI.BatchSize == 0 {
		cfg.OpenAI.BatchSize = 100
	}
	if cfg.Qdrant.URL == "" {
		cfg.Qdrant.URL = "http://localhost:6333"
	}
	if cfg.Qdrant.APIKeyEnv == "" {
		cfg.Qdrant.APIKeyEnv = "QDRANT_API_KEY"
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "textbook_chapters"
	}
	if cfg.Qdrant.Distance == "" {
		cfg.Qdrant.Distance = "Cosine"
	}
	if cfg.Qdrant.TimeoutSecs == 0 {
		cfg.Qdrant.TimeoutSecs = 15
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 500
	}
	if cfg.Chunker.OverlapSize == 0 {
		cfg.Chunker.OverlapSize = 100
	}
}
