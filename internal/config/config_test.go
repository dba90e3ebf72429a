package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().StoragePath, cfg.StoragePath)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_path: custom.db\nembedding:\n  provider: genai\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "custom.db", cfg.StoragePath)
	require.Equal(t, "genai", cfg.Embedding.Provider)
	require.Equal(t, "embeddinggemma", cfg.Embedding.OllamaModel) // untouched default survives partial decode
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DOMAINOS_STORAGE_PATH", "/tmp/from-env.db")
	t.Setenv("DOMAINOS_DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/tmp/from-env.db", cfg.StoragePath)
	require.True(t, cfg.Logging.DebugMode)
}

func TestValidateRejectsBadChunkerBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunker.MaxChunkChars = 50
	cfg.Chunker.MinChunkChars = 100
	require.Error(t, cfg.Validate())
}
