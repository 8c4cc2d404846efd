package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Analysis.SummaryBatchSize)
	assert.Equal(t, 5, cfg.Analysis.ExplainBatchSize)
	assert.Equal(t, 2, cfg.Analysis.MaxConcurrent)
	assert.Equal(t, 10, cfg.Analysis.EmbedBatchSize)
	assert.True(t, cfg.Analysis.EnableRelationshipDetection)
	assert.Equal(t, "openai", cfg.EmbeddingProvider())
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
ai:
  provider: gemini
  model: gemini-2.5-flash-lite
  embedding_provider: openai
analysis:
  explain_batch_size: 8
  enable_relationship_detection: false
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("CODEARCH_API_KEY", "secret")
	t.Setenv("CODEARCH_DB", "other.db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "secret", cfg.AI.APIKey)
	assert.Equal(t, "other.db", cfg.Database.Path)
	assert.Equal(t, 8, cfg.Analysis.ExplainBatchSize)
	assert.Equal(t, 3, cfg.Analysis.SummaryBatchSize, "unset keys keep defaults")
	assert.False(t, cfg.Analysis.EnableRelationshipDetection)
	assert.Equal(t, "openai", cfg.EmbeddingProvider())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Analysis.MaxConcurrent = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Path = ""
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Default().Validate())
}
