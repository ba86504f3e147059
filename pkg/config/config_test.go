package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("API_PREFIX", "")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("SESSION_EXPIRE_DAYS", "")

	require.NoError(t, Load())
	assert.Equal(t, "/api", GlobalConfig.APIPrefix)
	assert.Equal(t, 30*time.Second, GlobalConfig.LLMTimeout)
	assert.Equal(t, 7, GlobalConfig.SessionExpireDays)
	assert.Equal(t, "llama-3.3-70b-versatile", GlobalConfig.LLMModel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("API_PREFIX", "/v1")
	t.Setenv("LLM_TIMEOUT", "5")
	t.Setenv("CACHE_TYPE", "gocache")
	t.Setenv("SEED_DEMO", "true")

	require.NoError(t, Load())
	assert.Equal(t, "/v1", GlobalConfig.APIPrefix)
	assert.Equal(t, 5*time.Second, GlobalConfig.LLMTimeout)
	assert.Equal(t, "gocache", GlobalConfig.Cache.Type)
	assert.True(t, GlobalConfig.SeedDemo)
}
