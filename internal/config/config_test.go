package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "http://localhost:5000")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SESSION_SECRET", "s3cret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "quiz-practice-web", cfg.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, "http://localhost:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "quiz_session", cfg.Session.CookieName)
	assert.Equal(t, 2*time.Hour, cfg.Quiz.StateTTL)
	assert.Equal(t, 5*time.Minute, cfg.Quiz.ConfigCacheTTL)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("QUIZ_SYNC_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, 3*time.Second, cfg.Quiz.SyncTimeout)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
}

func TestLoadRequiresBackendURL(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("BACKEND_API_URL", "")

	_, err := Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_API_URL")
}

func TestLoadRejectsZeroRateLimit(t *testing.T) {
	setRequired(t)
	t.Setenv("RATE_LIMIT_REQUESTS", "0")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
