package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-practice-web/internal/auth"
	"github.com/gokatarajesh/quiz-practice-web/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-practice-web/internal/backend"
	"github.com/gokatarajesh/quiz-practice-web/internal/config"
	"github.com/gokatarajesh/quiz-practice-web/internal/dashboard"
	"github.com/gokatarajesh/quiz-practice-web/internal/logging"
	"github.com/gokatarajesh/quiz-practice-web/internal/quiz"
	"github.com/gokatarajesh/quiz-practice-web/internal/server"
	"github.com/gokatarajesh/quiz-practice-web/internal/web"
	"github.com/gokatarajesh/quiz-practice-web/pkg/http/apiclient"
	ws "github.com/gokatarajesh/quiz-practice-web/pkg/http/ws"
)

// Application aggregates shared infrastructure (cache, backend client, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis *redis.Client
	http  *http.Server

	broadcaster *quiz.Broadcaster
	limiter     *server.IPRateLimiter
	bgCancels   []context.CancelFunc
}

// New bootstraps logger, Redis, the backend client and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel, cfg.LogFile)
	logger.Info().Msg("starting application bootstrap")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("redis not reachable at startup")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	api, err := apiclient.New(cfg.Backend.BaseURL, apiclient.Options{
		Timeout: cfg.Backend.Timeout,
		Metrics: apiclient.NewMetrics(registry),
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	backendClient := backend.NewClient(api, backend.NewRedisConfigCache(redisClient, cfg.Quiz.ConfigCacheTTL), logger)

	tokenMgr, err := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Session.Secret),
		TTL:    cfg.Session.TTL,
		Issuer: cfg.Session.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("session tokens: %w", err)
	}

	renderer, err := web.NewRenderer(logger)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}

	cookies := sessionCookies(cfg)
	authSvc := auth.NewService(backendClient, tokenMgr, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, cookies, renderer, logger)

	wsHub := ws.NewHub(logger)
	quizSvc := quiz.NewService(
		backendClient,
		quiz.NewRedisStore(redisClient, cfg.Quiz.StateTTL, logger),
		quiz.ServiceOptions{
			SyncTimeout: cfg.Quiz.SyncTimeout,
			Publisher:   quiz.NewRedisPublisher(redisClient, cfg.Redis.EventChannel),
		},
		logger,
	)
	broadcaster := quiz.NewBroadcaster(redisClient, wsHub, cfg.Redis.EventChannel, logger)

	dashSvc := dashboard.NewService(backendClient, logger)
	pages := web.NewHandlers(quizSvc, dashSvc, backendClient, wsHub, renderer, logger)
	limiter := server.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	httpServer := server.NewHTTPServer(cfg, logger, server.Deps{
		Auth:     authHandlers,
		AuthSvc:  authSvc,
		Cookies:  cookies,
		Pages:    pages,
		Limiter:  limiter,
		Metrics:  server.NewHTTPMetrics(registry),
		Gatherer: registry,
		Ping: func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	})

	return &Application{
		cfg:         cfg,
		logger:      logger,
		redis:       redisClient,
		http:        httpServer,
		broadcaster: broadcaster,
		limiter:     limiter,
		bgCancels:   make([]context.CancelFunc, 0, 2),
	}, nil
}

// sessionCookies always marks the session cookie Secure in production.
func sessionCookies(cfg *config.App) auth.Cookies {
	return auth.Cookies{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure || cfg.IsProduction(),
	}
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	a.shutdown()
	return runErr
}

func (a *Application) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.broadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.broadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("quiz sync broadcaster stopped")
			}
		}()
	}

	if a.limiter != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go a.limiter.Run(bgCtx)
	}
}
