// Package config holds domainos' single configuration struct, loaded from
// YAML with environment overrides, following the teacher's config.Config
// pattern (one struct, nested sub-configs, a DefaultConfig constructor).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all domainos configuration.
type Config struct {
	// StoragePath is the sqlite database file backing the storage engine.
	StoragePath string `yaml:"storage_path"`

	Embedding EmbeddingConfig `yaml:"embedding"`
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Brainstorm BrainstormConfig `yaml:"brainstorm"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// EmbeddingConfig selects and configures the embedding client.
type EmbeddingConfig struct {
	Provider       string `yaml:"provider"` // "ollama" or "genai"
	OllamaEndpoint string `yaml:"ollama_endpoint"`
	OllamaModel    string `yaml:"ollama_model"`
	GenAIAPIKey    string `yaml:"genai_api_key"`
	GenAIModel     string `yaml:"genai_model"`
	TaskType       string `yaml:"task_type"`
	BatchMaxChunks int    `yaml:"batch_max_chunks"`
	BatchMaxChars  int    `yaml:"batch_max_chars"`
}

// PortfolioConfig tunes the portfolio-health pass.
type PortfolioConfig struct {
	MaxConcurrentStats int `yaml:"max_concurrent_stats"`
}

// ChunkerConfig tunes the heading-aware chunker's thresholds.
type ChunkerConfig struct {
	MinChunkChars int `yaml:"min_chunk_chars"`
	MaxChunkChars int `yaml:"max_chunk_chars"`
	OverlapChars  int `yaml:"overlap_chars"`
}

// BrainstormConfig tunes brainstorm-session caps.
type BrainstormConfig struct {
	IdeaCap int `yaml:"idea_cap"`
}

// LoggingConfig drives internal/logging.Initialize. Categories is not passed
// to Initialize, so with debug mode on every category is logged.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns sensible defaults matching spec.md's named constants.
func DefaultConfig() *Config {
	return &Config{
		StoragePath: "domainos.db",
		Embedding: EmbeddingConfig{
			Provider:       "ollama",
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "embeddinggemma",
			GenAIModel:     "gemini-embedding-001",
			TaskType:       "SEMANTIC_SIMILARITY",
			BatchMaxChunks: 50,
			BatchMaxChars:  100_000,
		},
		Portfolio: PortfolioConfig{MaxConcurrentStats: 16},
		Chunker: ChunkerConfig{
			MinChunkChars: 100,
			MaxChunkChars: 1500,
			OverlapChars:  200,
		},
		Brainstorm: BrainstormConfig{IdeaCap: 500},
		Logging:    LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file, keeping the defaults for keys the file
// omits, and then applies DOMAINOS_-prefixed environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants the rest of the system assumes.
func (c *Config) Validate() error {
	if c.Chunker.MinChunkChars <= 0 {
		return fmt.Errorf("chunker.min_chunk_chars must be > 0")
	}
	if c.Chunker.MaxChunkChars <= c.Chunker.MinChunkChars {
		return fmt.Errorf("chunker.max_chunk_chars must exceed min_chunk_chars")
	}
	if c.Chunker.OverlapChars < 0 || c.Chunker.OverlapChars >= c.Chunker.MaxChunkChars {
		return fmt.Errorf("chunker.overlap_chars must be >= 0 and < max_chunk_chars")
	}
	if c.Portfolio.MaxConcurrentStats <= 0 {
		return fmt.Errorf("portfolio.max_concurrent_stats must be > 0")
	}
	if c.Embedding.BatchMaxChunks <= 0 || c.Embedding.BatchMaxChars <= 0 {
		return fmt.Errorf("embedding batch limits must be > 0")
	}
	if c.Brainstorm.IdeaCap <= 0 {
		return fmt.Errorf("brainstorm.idea_cap must be > 0")
	}
	return nil
}

// applyEnvOverrides lets deployments override the YAML file with
// DOMAINOS_-prefixed env vars, e.g. DOMAINOS_STORAGE_PATH.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("DOMAINOS_STORAGE_PATH"); v != "" {
		c.StoragePath = v
	}
	if v := os.Getenv("DOMAINOS_EMBEDDING_PROVIDER"); v != "" {
		c.Embedding.Provider = v
	}
	if v := os.Getenv("DOMAINOS_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
	if v := os.Getenv("DOMAINOS_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}
