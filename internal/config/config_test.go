package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "demo-project")
	for _, key := range []string{"PORT", "RESULT_STORE", "MAX_IMAGE_WIDTH", "MAX_PAGE_WORKERS", "PAGE_TIMEOUT", "RETRY_MAX_ATTEMPTS", "GENERATION_MODEL"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, StoreFirestore, cfg.ResultStore)
	assert.Equal(t, 2000, cfg.MaxImageWidth)
	assert.Equal(t, 10, cfg.MaxPageWorkers)
	assert.Equal(t, 2*time.Minute, cfg.PageTimeout)
	assert.Equal(t, 4, cfg.RetryMaxAttempts)
	assert.Equal(t, "gemini-2.5-flash", cfg.GenerationModel)
}

func TestLoadRequiresProjectID(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROJECT_ID")
}

func TestValidateMongoNeedsConnection(t *testing.T) {
	cfg := &Config{ProjectID: "p", ResultStore: StoreMongo, MaxImageWidth: 1, RetryMaxAttempts: 1}
	require.Error(t, cfg.Validate())

	cfg.MongoConnection = "mongodb://localhost:27017"
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	cfg := &Config{ProjectID: "p", ResultStore: "postgres", MaxImageWidth: 1, RetryMaxAttempts: 1}
	require.Error(t, cfg.Validate())
}

func TestTypedHelpersFallBack(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "-5s")
	t.Setenv("X_FLOAT", "2.5")

	assert.Equal(t, 7, GetEnvInt("X_INT", 7))
	assert.Equal(t, time.Second, GetEnvDuration("X_DUR", time.Second))
	assert.Equal(t, 2.5, GetEnvFloat("X_FLOAT", 0))
	assert.Equal(t, "fb", GetEnv("X_MISSING_KEY", "fb"))
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "DEBUG"}).SlogLevel())
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warning"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: ""}).SlogLevel())
}
