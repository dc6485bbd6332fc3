package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, 500, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 50, cfg.Pipeline.OverlapSizeValue())
	assert.Equal(t, 0.9, cfg.Pipeline.SimilarityThreshold)
	assert.True(t, cfg.Pipeline.DedupEnabled())
	assert.Equal(t, "tfidf", cfg.Embedder.Type)
	assert.Equal(t, "memory", cfg.VectorStore.Type)
	assert.True(t, cfg.Security.VerifyIntegrityEnabled())
	assert.True(t, cfg.Security.AIDetectionEnabled())
}

func TestLoadAppliesPartialDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
pipeline:
  chunk_size: 200
  dedup: false
embedder:
  type: openai
  openai:
    model: my-model
llm:
  provider: ollama
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Pipeline.ChunkSize)
	assert.Equal(t, 50, cfg.Pipeline.OverlapSizeValue())
	assert.False(t, cfg.Pipeline.DedupEnabled())

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "my-model", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "https://integrate.api.nvidia.com/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "NVIDIA_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 60, cfg.LLM.TimeoutSecs)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	disabled := false
	overlap := 10
	cfg := &AppConfig{
		Server:   ServerConfig{Addr: ":9000"},
		Pipeline: PipelineConfig{ChunkSize: 100, OverlapSize: &overlap, Dedup: &disabled, SimilarityThreshold: 0.8},
		Embedder: EmbedderConfig{Type: "tfidf"},
		VectorStore: VectorStoreConfig{
			Type:    "chromem",
			Chromem: &ChromemConfig{Path: "./db", Collection: "docs"},
		},
		LLM: LLMConfig{Provider: "ollama", Model: "llama3.2:latest"},
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", loaded.Server.Addr)
	assert.Equal(t, 100, loaded.Pipeline.ChunkSize)
	assert.False(t, loaded.Pipeline.DedupEnabled())
	require.NotNil(t, loaded.VectorStore.Chromem)
	assert.Equal(t, "docs", loaded.VectorStore.Chromem.Collection)
	assert.Equal(t, "llama3.2:latest", loaded.LLM.Model)
}

func TestExplicitZeroOverlapIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
pipeline:
  chunk_size: 100
  overlap_size: 0
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Pipeline.OverlapSizeValue())
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not: [valid"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}
