package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("EXPORT_WORKERS", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	cfg := Load()

	assert.Equal(t, 1, cfg.ExportWorkers)
	assert.Equal(t, 30*time.Second, cfg.ExportFetchTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("EXPORT_WORKERS", "4")
	t.Setenv("EXPORT_FETCH_TIMEOUT", "45")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 4, cfg.ExportWorkers)
	assert.Equal(t, 45*time.Second, cfg.ExportFetchTimeout)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}
