package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-menu/internal/config"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":          "postgres://localhost/menu",
		"REDIS_URL":             "redis://localhost:6379/0",
		"CATALOG_TIMEZONE":      "",
		"CATALOG_DEFAULT_LIMIT": "",
		"CATALOG_MAX_LIMIT":     "",
		"RATE_LIMIT_STRATEGY":   "",
		"OBS_ENABLE_PROMETHEUS": "",
		"PORT":                  "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, time.UTC.String(), cfg.CatalogLocation.String())
	require.Equal(t, 10, cfg.CatalogDefaultLimit)
	require.Equal(t, 100, cfg.CatalogMaxLimit)
	require.Equal(t, "sliding", cfg.RateLimitStrategy)
	require.True(t, cfg.EnablePrometheus)
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["CATALOG_TIMEZONE"] = "Asia/Jakarta"
	env["CATALOG_DEFAULT_LIMIT"] = "25"
	env["CATALOG_MAX_LIMIT"] = "5"
	env["RATE_LIMIT_STRATEGY"] = "STORE"
	env["OBS_ENABLE_PROMETHEUS"] = "false"
	env["PORT"] = ":9090"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, "Asia/Jakarta", cfg.CatalogLocation.String())
	require.Equal(t, 25, cfg.CatalogDefaultLimit)
	require.Equal(t, 25, cfg.CatalogMaxLimit)
	require.Equal(t, "store", cfg.RateLimitStrategy)
	require.False(t, cfg.EnablePrometheus)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	env := baseEnv()
	env["DATABASE_URL"] = ""
	_, err := config.LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["CATALOG_TIMEZONE"] = "Mars/Olympus"
	_, err = config.LoadForTests(env)
	require.Error(t, err)

	env = baseEnv()
	env["RATE_LIMIT_STRATEGY"] = "token-bucket"
	_, err = config.LoadForTests(env)
	require.Error(t, err)
}
