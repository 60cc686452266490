package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"cineqa/internal/config"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("DB_HOST", "test-host")
	defer os.Unsetenv("DB_HOST")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "test-host", cfg.DBHost)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 150, cfg.ChunkOverlap)
	assert.Equal(t, 10, cfg.FusionTimeoutSeconds)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.True(t, cfg.EnableExtractWorker)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	content := []byte("DB_HOST=loaded-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "loaded-from-file", cfg.DBHost)
}

func TestLoadConfig_Toggles(t *testing.T) {
	os.Setenv("ENABLE_EXTRACT_WORKER", "false")
	os.Setenv("INGESTION_CONCURRENCY", "10")
	defer os.Unsetenv("ENABLE_EXTRACT_WORKER")
	defer os.Unsetenv("INGESTION_CONCURRENCY")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.False(t, cfg.EnableExtractWorker)
	assert.Equal(t, 10, cfg.IngestionConcurrency)
}

func TestLoadConfig_OverlapMustBeSmallerThanSize(t *testing.T) {
	os.Setenv("CHUNK_SIZE", "100")
	os.Setenv("CHUNK_OVERLAP", "100")
	defer os.Unsetenv("CHUNK_SIZE")
	defer os.Unsetenv("CHUNK_OVERLAP")

	_, err := config.Load()
	assert.Error(t, err)
}
