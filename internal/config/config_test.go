package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WORKFLOW_ATOMIC_CHAINS", "")

	cfg := Load()

	assert.True(t, cfg.Workflow.AtomicChains)
	assert.False(t, cfg.Workflow.AutoRepair)
	assert.Equal(t, 15*time.Minute, cfg.Storage.URLExpiry)
	assert.Equal(t, 4096, cfg.Ai.StreamChunkSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORKFLOW_ATOMIC_CHAINS", "false")
	t.Setenv("WORKFLOW_AUTO_REPAIR", "true")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("STORAGE_URL_EXPIRY", "1h")
	t.Setenv("LLM_STREAM_CHUNK_SIZE", "512")

	cfg := Load()

	assert.False(t, cfg.Workflow.AtomicChains)
	assert.True(t, cfg.Workflow.AutoRepair)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.InDelta(t, 0.7, cfg.Ai.Temperature, 0.0001)
	assert.Equal(t, time.Hour, cfg.Storage.URLExpiry)
	assert.Equal(t, 512, cfg.Ai.StreamChunkSize)
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("BROKEN_INT", "abc")
	t.Setenv("BROKEN_BOOL", "maybe")

	assert.Equal(t, 7, getEnvAsInt("BROKEN_INT", 7))
	assert.True(t, getEnvAsBool("BROKEN_BOOL", true))
}
