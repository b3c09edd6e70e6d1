// Package config loads coursemind configuration from a JSON file or,
// for container deployments, straight from environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config is the top-level coursemind configuration.
type Config struct {
	Provider  ProviderConfig  `json:"provider"`
	Corpus    CorpusConfig    `json:"corpus"`
	Session   SessionConfig   `json:"session"`
	API       APIConfig       `json:"api"`
	Connector ConnectorConfig `json:"connectors"`
}

// ProviderConfig holds model-service settings.
type ProviderConfig struct {
	Type    string `json:"type,omitempty"` // "anthropic" (default) or "openai"
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model,omitempty"`
}

// CorpusConfig holds corpus store and ingestion settings.
type CorpusConfig struct {
	DataDir         string `json:"data_dir"`
	DocsDir         string `json:"docs_dir"`
	MaxResults      int    `json:"max_results,omitempty"`      // default 5
	ChunkSize       int    `json:"chunk_size,omitempty"`       // default 800
	ChunkOverlap    int    `json:"chunk_overlap,omitempty"`    // default 100
	ReindexSchedule string `json:"reindex_schedule,omitempty"` // cron spec, empty disables
}

// SessionConfig holds conversation history settings.
type SessionConfig struct {
	MaxHistory int `json:"max_history,omitempty"` // exchanges retained, default 2
}

// APIConfig holds REST API server settings.
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	Key  string `json:"api_key,omitempty"`
}

// ConnectorConfig holds settings for external chat connectors.
type ConnectorConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token     string  `json:"token"`
	AllowFrom []int64 `json:"allow_from,omitempty"`
}

// Load reads configuration from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv builds a config from COURSEMIND_-prefixed environment
// variables, falling back to the conventional provider key variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Corpus: CorpusConfig{
			DataDir:         getenv("COURSEMIND_DATA_DIR", "./data"),
			DocsDir:         getenv("COURSEMIND_DOCS_DIR", "./docs"),
			ReindexSchedule: os.Getenv("COURSEMIND_REINDEX_SCHEDULE"),
		},
		API: APIConfig{
			Host: getenv("COURSEMIND_API_HOST", "0.0.0.0"),
			Port: getenvInt("COURSEMIND_API_PORT", 8000),
			Key:  os.Getenv("COURSEMIND_API_KEY"),
		},
	}

	if key := getenv("COURSEMIND_ANTHROPIC_API_KEY", os.Getenv("ANTHROPIC_API_KEY")); key != "" {
		cfg.Provider = ProviderConfig{
			Type:   "anthropic",
			APIKey: key,
			Model:  os.Getenv("COURSEMIND_MODEL"),
		}
	} else if key := getenv("COURSEMIND_OPENAI_API_KEY", os.Getenv("OPENAI_API_KEY")); key != "" {
		cfg.Provider = ProviderConfig{
			Type:    "openai",
			APIKey:  key,
			BaseURL: os.Getenv("COURSEMIND_OPENAI_BASE_URL"),
			Model:   os.Getenv("COURSEMIND_MODEL"),
		}
	}

	if token := os.Getenv("COURSEMIND_TELEGRAM_TOKEN"); token != "" {
		cfg.Connector.Telegram = &TelegramConfig{Token: token}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Provider.Type == "" {
		c.Provider.Type = "anthropic"
	}
	if c.Corpus.DataDir == "" {
		c.Corpus.DataDir = "./data"
	}
	if c.Corpus.MaxResults <= 0 {
		c.Corpus.MaxResults = 5
	}
	if c.Corpus.ChunkSize <= 0 {
		c.Corpus.ChunkSize = 800
	}
	if c.Corpus.ChunkOverlap <= 0 {
		c.Corpus.ChunkOverlap = 100
	}
	if c.Session.MaxHistory <= 0 {
		c.Session.MaxHistory = 2
	}
	if c.API.Host == "" {
		c.API.Host = "0.0.0.0"
	}
	if c.API.Port == 0 {
		c.API.Port = 8000
	}
}

// Validate checks the configuration for fatal problems.
func (c *Config) Validate() error {
	switch c.Provider.Type {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("config: unknown provider type %q", c.Provider.Type)
	}
	if c.Provider.APIKey == "" {
		return fmt.Errorf("config: provider api_key is required")
	}
	if c.Corpus.ChunkOverlap >= c.Corpus.ChunkSize {
		return fmt.Errorf("config: chunk_overlap must be smaller than chunk_size")
	}
	if c.Connector.Telegram != nil && c.Connector.Telegram.Token == "" {
		return fmt.Errorf("config: telegram connector requires a token")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
