package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Timeouts.Connect)
	assert.Equal(t, 30*time.Second, cfg.Timeouts.PlantID)
	assert.Equal(t, 7*24*time.Hour, cfg.Cache.CategoryTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cache.LocationTTL)
	assert.Equal(t, "gpt-5-mini", cfg.Reasoning.OpenAIModel)
	assert.Equal(t, "@every 6h", cfg.Scheduler.CategoryRefreshSpec)
	assert.Equal(t, 36.628956, cfg.Defaults.Latitude)
	assert.True(t, cfg.Defaults.VarietyReference)
	assert.False(t, cfg.Defaults.Telemetry)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("FIBER_PORT", "9090")
	t.Setenv("REASONING_PROVIDER", "Gemini")
	t.Setenv("KMA_API_KEY", "abc%2Bdef%3D%3D")
	t.Setenv("NONGSARO_API_KEY", "plainkey")
	t.Setenv("NONGSARO_READ_TIMEOUT", "3s")
	t.Setenv("DEFAULT_USE_SMARTFARM", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.Reasoning.Provider)
	assert.Equal(t, "abc+def==", cfg.Providers.KMAAPIKey)
	assert.Equal(t, "plainkey", cfg.Providers.NongsaroAPIKey)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.Nongsaro)
	assert.True(t, cfg.Defaults.Telemetry)
}

func TestParseHelpers_InvalidValues(t *testing.T) {
	assert.Zero(t, parseDuration("soon"))
	assert.Zero(t, parseInt("many"))
	assert.Zero(t, parseFloat("north"))
	assert.False(t, parseBool("maybe"))
}

func TestGetSecret_InvalidEscapeKeepsRaw(t *testing.T) {
	t.Setenv("PLANT_ID_API_KEY", "bad%zz")
	assert.Equal(t, "bad%zz", getSecret("PLANT_ID_API_KEY"))
}
