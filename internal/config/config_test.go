package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEnv, cfg.Env)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultRateLimitRPM, cfg.RateLimitRPM)
	assert.Equal(t, int64(DefaultMaxRequestKB), cfg.MaxRequestKB)
	assert.False(t, cfg.DemoEnabled)
	assert.Empty(t, cfg.AdminToken)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_RPM", "120")
	t.Setenv("ADMIN_TOKEN", "secret")
	t.Setenv("DEMO_ENABLED", "true")
	t.Setenv("DEMO_API_KEY", "sk_demo")
	t.Setenv("HIGH_AMOUNT_THRESHOLD", "750.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 120, cfg.RateLimitRPM)
	assert.Equal(t, "secret", cfg.AdminToken)
	assert.True(t, cfg.DemoEnabled)
	assert.Equal(t, "sk_demo", cfg.DemoKey)
	assert.Equal(t, 750.5, cfg.HighAmountThreshold)
}

func TestLoad_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPM", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultRateLimitRPM, cfg.RateLimitRPM)
}

func TestValidate(t *testing.T) {
	valid := &Config{RateLimitRPM: 60, MaxRequestKB: 64}
	assert.NoError(t, valid.Validate())

	bad := &Config{RateLimitRPM: 0, MaxRequestKB: 64}
	assert.Error(t, bad.Validate())

	bad = &Config{RateLimitRPM: 60, MaxRequestKB: 0}
	assert.Error(t, bad.Validate())

	bad = &Config{RateLimitRPM: 60, MaxRequestKB: 64, DemoEnabled: true}
	assert.Error(t, bad.Validate())

	bad = &Config{RateLimitRPM: 60, MaxRequestKB: 64, HighAmountThreshold: -1}
	assert.Error(t, bad.Validate())
}

func TestEnvModes(t *testing.T) {
	dev := &Config{Env: "development"}
	assert.True(t, dev.IsDevelopment())
	assert.False(t, dev.IsProduction())

	prod := &Config{Env: "production"}
	assert.True(t, prod.IsProduction())
	assert.False(t, prod.IsDevelopment())
}
