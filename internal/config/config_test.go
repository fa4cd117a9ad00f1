package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "fanstream", cfg.DBName)
	assert.Equal(t, "gemini-embedding-001", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.EmbeddingDimensions)
	assert.Equal(t, "transcript-extractor", cfg.TranscriptExtractorBin)
	assert.Equal(t, 3, cfg.PollIntervalSeconds)
	assert.Equal(t, 2, cfg.VideoDelaySeconds)
	assert.Equal(t, 8081, cfg.ServerPort)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("EMBEDDING_DIMENSIONS", "1536")
	t.Setenv("POLL_INTERVAL_SECONDS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
	assert.Equal(t, 10, cfg.PollIntervalSeconds)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			DBHost:              "postgres",
			DBUser:              "fanstream",
			DBName:              "fanstream",
			EmbeddingDimensions: 768,
			PollIntervalSeconds: 3,
		}
	}

	t.Run("Valid", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("Missing DB Host", func(t *testing.T) {
		cfg := valid()
		cfg.DBHost = ""
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})

	t.Run("Zero Dimensions", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingDimensions = 0
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})

	t.Run("Zero Poll Interval", func(t *testing.T) {
		cfg := valid()
		cfg.PollIntervalSeconds = 0
		assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
	})
}
