package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds runtime configuration for the web front-end.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-practice-web"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile                 string        `env:"LOG_FILE" envDefault:""`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Backend   Backend
	Redis     Redis
	Session   Session
	Quiz      Quiz
	RateLimit RateLimit
}

// Backend points at the quiz backend REST API.
type Backend struct {
	BaseURL string        `env:"BACKEND_API_URL,notEmpty"`
	Timeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"10s"`
}

// Redis holds attempt state, config cache and sync event settings.
type Redis struct {
	Addr         string `env:"REDIS_ADDR,notEmpty"`
	DB           int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize     int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
	EventChannel string `env:"REDIS_EVENT_CHANNEL" envDefault:"quiz:sync"`
}

// Session configures the signed session cookie.
type Session struct {
	Secret       string        `env:"SESSION_SECRET,notEmpty"`
	TTL          time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	Issuer       string        `env:"SESSION_ISSUER" envDefault:"quiz-practice-web"`
	CookieName   string        `env:"SESSION_COOKIE_NAME" envDefault:"quiz_session"`
	CookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

// Quiz tunes the quiz session controller.
type Quiz struct {
	StateTTL       time.Duration `env:"QUIZ_STATE_TTL" envDefault:"2h"`
	SyncTimeout    time.Duration `env:"QUIZ_SYNC_TIMEOUT" envDefault:"10s"`
	ConfigCacheTTL time.Duration `env:"QUIZ_CONFIG_CACHE_TTL" envDefault:"5m"`
}

// RateLimit bounds login, registration and admin passcode attempts per client IP.
type RateLimit struct {
	Requests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"10"`
	Window   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// IsProduction reports whether the app runs with production settings.
func (a *App) IsProduction() bool {
	return a.Env == "production"
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.RateLimit.Requests <= 0 || cfg.RateLimit.Window <= 0 {
		return nil, fmt.Errorf("parse config: rate limit must be positive")
	}
	return cfg, nil
}
