package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("FOLDER_PATH", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("STORAGE_BACKEND", "")
	t.Setenv("TRUSTED_PROXIES", "")

	cfg := Load()

	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "/tmp/files_manager", cfg.FolderPath)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORAGE_BACKEND", "local")
	t.Setenv("FOLDER_PATH", "/srv/files")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("LOGIN_RATE_LIMIT", "0.5")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, ,192.0.2.10")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/srv/files", cfg.FolderPath)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 8, cfg.WorkerConcurrency)
	assert.Equal(t, 0.5, cfg.LoginRateLimit)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.TrustedProxies)
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "lots")
	t.Setenv("SESSION_TTL", "a day")

	assert.Equal(t, 2, envInt("WORKER_CONCURRENCY", 2))
	assert.Equal(t, 24*time.Hour, envDuration("SESSION_TTL", 24*time.Hour))
}
