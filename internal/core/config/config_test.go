package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookup(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"JWT_SECRET":   "secret",
		"DATABASE_URL": "postgres://localhost/ledger?sslmode=disable",
	}))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.Host)
	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30, cfg.AdminOverrideLimit)
	assert.Equal(t, time.Minute, cfg.AdminOverrideWindow)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "LB", cfg.LobbyRackPrefix)
	assert.False(t, cfg.AutoMigrate)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(lookup(map[string]string{
		"APP_ENV":               "production",
		"JWT_SECRET":            "secret",
		"STORAGE_DRIVER":        "Memory",
		"AUTO_MIGRATE":          "true",
		"REQUEST_TIMEOUT":       "3s",
		"ADMIN_OVERRIDE_LIMIT":  "5",
		"ADMIN_OVERRIDE_WINDOW": "bogus",
		"CORS_ALLOWED_ORIGINS":  "https://a.example.com, https://b.example.com,",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5, cfg.AdminOverrideLimit)
	assert.Equal(t, time.Minute, cfg.AdminOverrideWindow, "malformed value falls back")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestFromEnvRequiredKeys(t *testing.T) {
	_, err := FromEnv(lookup(map[string]string{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
	assert.Contains(t, err.Error(), "DATABASE_URL is required")

	_, err = FromEnv(lookup(map[string]string{"JWT_SECRET": "s", "STORAGE_DRIVER": "mongo"}))
	assert.ErrorContains(t, err, `unknown STORAGE_DRIVER "mongo"`)
}
