package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/recipebook/internal/discussion"
	"github.com/example/recipebook/internal/handlers"
	"github.com/example/recipebook/internal/platform/analytics"
	"github.com/example/recipebook/internal/platform/auth"
	"github.com/example/recipebook/internal/platform/config"
	"github.com/example/recipebook/internal/platform/httpserver"
	"github.com/example/recipebook/internal/platform/logging"
	"github.com/example/recipebook/internal/platform/metrics"
	"github.com/example/recipebook/internal/platform/natsconn"
	"github.com/example/recipebook/internal/platform/run"
	"github.com/example/recipebook/internal/ratelimit"
	"github.com/example/recipebook/internal/spa"
	"github.com/example/recipebook/internal/threadcache"
	"github.com/example/recipebook/internal/upstream"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, zap.String("service", cfg.ServiceName))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	webCfg, err := config.LoadWeb()
	if err != nil {
		log.Error("load web config", zap.Error(err))
		run.Exit(1)
	}

	m := metrics.New("recipebook")

	// NATS is optional: without it there are no analytics events and
	// no cross-instance cache invalidation.
	var nc *nats.Conn
	if webCfg.NATSURL != "" {
		nc, err = natsconn.Connect(natsconn.Options{URL: webCfg.NATSURL, Name: cfg.ServiceName, Logger: log})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			nc = nil
		}
	}
	events, err := analytics.NewFromConn(nc, log)
	if err != nil {
		log.Warn("analytics disabled", zap.Error(err))
	}

	cache, closeCache := initThreadCache(log, webCfg)
	invalidator := threadcache.NewInvalidator(nc, cache, log)
	sub, err := invalidator.Subscribe()
	if err != nil {
		log.Warn("thread cache invalidation subscription failed", zap.Error(err))
	}

	authAPI := upstream.New(upstream.Options{
		Name: "auth", BaseURL: webCfg.AuthAPIURL, Timeout: webCfg.UpstreamTimeout, Metrics: m, Logger: log,
	})
	recipeAPI := upstream.New(upstream.Options{
		Name: "recipes", BaseURL: webCfg.RecipeAPIURL, Timeout: webCfg.UpstreamTimeout, Metrics: m, Logger: log,
	})

	threads := discussion.New(discussion.Options{
		Comments:    upstream.NewCommentClient(recipeAPI),
		Cache:       cache,
		Events:      events,
		Broadcaster: invalidator,
		Metrics:     m,
		Logger:      log,
	})

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		ReadyFunc:  readiness(cache, authAPI, recipeAPI),
		Metrics:    m,
		Logger:     log,
		TrustProxy: webCfg.TrustProxy,
	})

	handlers.Routes(r, handlers.Deps{
		Verifier:   auth.JWTVerifier{Secret: webCfg.JWTSecret},
		Auth:       upstream.NewAuthClient(authAPI),
		Recipes:    upstream.NewRecipeClient(recipeAPI),
		Discussion: threads,
		Ratings:    upstream.NewRatingClient(recipeAPI),
		Favorites:  upstream.NewFavoriteClient(recipeAPI),
		Events:     events,
		Limiter:    ratelimit.New(webCfg.RateLimitRPS, webCfg.RateLimitBurst),
		Logger:     log,
	})

	if webCfg.StaticDir != "" {
		app, err := spa.New(webCfg.StaticDir)
		if err != nil {
			log.Error("static assets", zap.String("dir", webCfg.StaticDir), zap.Error(err))
			run.Exit(1)
		}
		r.NotFound(app.ServeHTTP)
	}

	srv := httpserver.New(httpserver.Options{
		Addr:         cfg.HTTP.Addr,
		ServiceName:  cfg.ServiceName,
		Logger:       log,
		Router:       r,
		WriteTimeout: webCfg.UpstreamTimeout*2 + 5*time.Second,
	})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		return srv.Start(log)
	})

	runner.Graceful(
		srv.Shutdown,
		func(context.Context) error {
			if sub != nil {
				return sub.Unsubscribe()
			}
			return nil
		},
		func(context.Context) error {
			if nc != nil {
				return nc.Drain()
			}
			return nil
		},
		closeCache,
	)

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// readiness fails while any backend circuit is open or the shared thread
// cache stops answering.
func readiness(cache threadcache.Store, clients ...*upstream.Client) func() error {
	return func() error {
		for _, c := range clients {
			if c.State() == gobreaker.StateOpen {
				return fmt.Errorf("%s circuit open", c.Name())
			}
		}
		if p, ok := cache.(interface{ Ping(context.Context) error }); ok {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				return fmt.Errorf("thread cache: %w", err)
			}
		}
		return nil
	}
}

// initThreadCache uses Redis when REDIS_URL is set and reachable, so every
// instance shares one copy of each thread and no invalidations are sent.
// Otherwise threads are cached per process and peers are told over NATS.
func initThreadCache(log *zap.Logger, cfg config.WebConfig) (threadcache.Store, func(context.Context) error) {
	noClose := func(context.Context) error { return nil }
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, using in-memory thread cache")
		return threadcache.NewMemoryStore(cfg.ThreadCacheTTL), noClose
	}

	rs, err := threadcache.NewRedisStore(cfg.RedisURL, cfg.ThreadCacheTTL)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory thread cache", zap.Error(err))
		return threadcache.NewMemoryStore(cfg.ThreadCacheTTL), noClose
	}
	log.Info("thread cache backed by redis")
	return rs, func(context.Context) error { return rs.Close() }
}
