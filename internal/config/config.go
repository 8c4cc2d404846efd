package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	AI struct {
		Provider           string  `yaml:"provider"` // openai (any compatible endpoint) or gemini
		APIKey             string  `yaml:"api_key"`
		BaseURL            string  `yaml:"base_url"`
		Model              string  `yaml:"model"` // text generation model
		Temperature        float32 `yaml:"temperature"`
		EmbeddingProvider  string  `yaml:"embedding_provider"`
		EmbeddingModel     string  `yaml:"embedding_model"`
		EmbeddingDimension int     `yaml:"embedding_dimension"`
	} `yaml:"ai"`
	Analysis struct {
		SummaryBatchSize            int  `yaml:"summary_batch_size"`
		ExplainBatchSize            int  `yaml:"explain_batch_size"`
		MaxConcurrent               int  `yaml:"max_concurrent"`
		EmbedBatchSize              int  `yaml:"embed_batch_size"`
		SnippetMaxChars             int  `yaml:"snippet_max_chars"`
		EnableRelationshipDetection bool `yaml:"enable_relationship_detection"`
		PreciseParsing              bool `yaml:"precise_parsing"`
	} `yaml:"analysis"`
	Ingest struct {
		CloneDir         string   `yaml:"clone_dir"`
		MaxFileSizeBytes int64    `yaml:"max_file_size_bytes"`
		Ignore           []string `yaml:"ignore"`
		GitHubToken      string   `yaml:"github_token"`
	} `yaml:"ingest"`
	Search struct {
		ResultsLimit   int `yaml:"results_limit"`
		QueryCacheSize int `yaml:"query_cache_size"`
	} `yaml:"search"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Database.Path = "codearch.db"

	cfg.AI.Provider = "openai"
	cfg.AI.APIKey = "ollama"
	cfg.AI.BaseURL = "http://localhost:11434/v1"
	cfg.AI.Model = "deepseek-coder-v2:16b"
	cfg.AI.Temperature = 0.3
	cfg.AI.EmbeddingModel = "all-minilm"
	cfg.AI.EmbeddingDimension = 384

	cfg.Analysis.SummaryBatchSize = 3
	cfg.Analysis.ExplainBatchSize = 5
	cfg.Analysis.MaxConcurrent = 2
	cfg.Analysis.EmbedBatchSize = 10
	cfg.Analysis.SnippetMaxChars = 2000
	cfg.Analysis.EnableRelationshipDetection = true
	cfg.Analysis.PreciseParsing = true

	cfg.Ingest.CloneDir = "./cloned_repos"
	cfg.Ingest.MaxFileSizeBytes = 1_000_000

	cfg.Search.ResultsLimit = 8
	cfg.Search.QueryCacheSize = 256

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return &cfg
}

// LoadConfig reads path on top of the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	// 3. Override with Environment Variables if present
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CODEARCH_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("CODEARCH_AI_PROVIDER"); v != "" {
		c.AI.Provider = v
	}
	if v := os.Getenv("CODEARCH_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("CODEARCH_MODEL"); v != "" {
		c.AI.Model = v
	}
	if v := os.Getenv("CODEARCH_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("CODEARCH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CODEARCH_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Analysis.MaxConcurrent = n
		}
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		c.Ingest.GitHubToken = v
	}
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		v    int
	}{
		{"analysis.summary_batch_size", c.Analysis.SummaryBatchSize},
		{"analysis.explain_batch_size", c.Analysis.ExplainBatchSize},
		{"analysis.max_concurrent", c.Analysis.MaxConcurrent},
		{"analysis.embed_batch_size", c.Analysis.EmbedBatchSize},
		{"analysis.snippet_max_chars", c.Analysis.SnippetMaxChars},
	}
	for _, ch := range checks {
		if ch.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", ch.name, ch.v)
		}
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	return nil
}

// EmbeddingProvider falls back to the text generation provider when unset.
func (c *Config) EmbeddingProvider() string {
	if c.AI.EmbeddingProvider != "" {
		return c.AI.EmbeddingProvider
	}
	return c.AI.Provider
}
