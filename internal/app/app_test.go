package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-practice-web/internal/config"
)

func testConfig(t *testing.T) *config.App {
	t.Helper()
	mr := miniredis.RunT(t)
	backendSrv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(backendSrv.Close)

	return &config.App{
		Name:                    "quiz-practice-web",
		Env:                     "test",
		HTTPAddr:                "127.0.0.1:0",
		LogLevel:                "error",
		GracefulShutdownTimeout: time.Second,
		Backend:                 config.Backend{BaseURL: backendSrv.URL, Timeout: time.Second},
		Redis:                   config.Redis{Addr: mr.Addr(), PoolSize: 2, EventChannel: "quiz:sync"},
		Session:                 config.Session{Secret: "s3cret", TTL: time.Hour, Issuer: "test", CookieName: "quiz_session"},
		Quiz:                    config.Quiz{StateTTL: time.Hour, SyncTimeout: time.Second, ConfigCacheTTL: time.Minute},
		RateLimit:               config.RateLimit{Requests: 5, Window: time.Minute},
	}
}

func TestNewWiresHealthAndPages(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.redis.Close() })

	rec := httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/practice", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fpractice", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	a.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNewRejectsInvalidBackendURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.Backend.BaseURL = "::not a url"

	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend client")
}

func TestRunStopsWhenContextCanceled(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestSessionCookiesSecureInProduction(t *testing.T) {
	cfg := &config.App{Env: "development", Session: config.Session{CookieName: "quiz_session"}}
	assert.False(t, sessionCookies(cfg).Secure)

	cfg.Session.CookieSecure = true
	assert.True(t, sessionCookies(cfg).Secure)

	cfg = &config.App{Env: "production", Session: config.Session{CookieName: "quiz_session"}}
	cookies := sessionCookies(cfg)
	assert.True(t, cookies.Secure)
	assert.Equal(t, "quiz_session", cookies.Name)
}
