package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habits/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habits/internal/config"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
	"github.com/comitanigiacomo/kanso-habits/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habits/internal/logger"
)

type store interface {
	domain.KeyValueStore
	Ping(ctx context.Context) error
}

type app struct {
	router   *gin.Engine
	registry *services.Registry
	redis    *redis.Client
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store, *redis.Client, []func() error, error) {
	var closers []func() error

	var rdb *redis.Client
	if cfg.UsesRedis() {
		client, err := cache.NewRedisClient(cache.Options{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		switch {
		case err != nil && cfg.Store == "redis":
			return nil, nil, nil, err
		case err != nil:
			log.Warn("redis unavailable, continuing without cache and rate limiting", zap.Error(err))
		default:
			rdb = client
			closers = append(closers, client.Close)
		}
	}

	var s store
	switch cfg.Store {
	case "memory":
		s = repository.NewMemoryStore()
	case "sqlite":
		sqlite, err := repository.OpenSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, closers, err
		}
		closers = append(closers, sqlite.Close)
		s = sqlite
	case "postgres":
		pg, err := repository.OpenPostgresStore(ctx, cfg.Postgres.DSN(), cfg.Postgres.Table)
		if err != nil {
			return nil, nil, closers, err
		}
		closers = append(closers, pg.Close)
		s = pg
	case "redis":
		s = repository.NewRedisStore(rdb, "kanso:")
	default:
		return nil, nil, closers, fmt.Errorf("unknown store driver %q", cfg.Store)
	}

	if cfg.Redis.Cache && rdb != nil && cfg.Store != "redis" {
		s = repository.NewCachedStore(s, rdb, cfg.Redis.CacheTTL, log)
	}

	return s, rdb, closers, nil
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, clock services.Clock) (*app, error) {
	s, rdb, closers, err := openStore(ctx, cfg, log)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}

	registry := services.NewRegistry(s, log, clock)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		ProfileHandler: adapterHTTP.NewProfileHandler(services.NewProfileService(s), registry),
		HabitHandler:   adapterHTTP.NewHabitHandler(registry),
		StatsHandler:   adapterHTTP.NewStatsHandler(services.NewStatsService(s, clock)),
		Store:          s,
		Redis:          rdb,
		RateLimit:      cfg.Redis.RateLimit,
		Logger:         log,
		StartTime:      time.Now(),
	})

	return &app{
		router:   router,
		registry: registry,
		redis:    rdb,
		closers:  closers,
	}, nil
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("opening store", zap.String("driver", cfg.Store))
	a, err := newApp(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	rollover := workers.NewRolloverWorker(a.registry, log, cfg.RolloverSchedule, time.Local)
	if err := rollover.Start(ctx); err != nil {
		return err
	}
	defer rollover.Stop()

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("kanso habits running", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info("stop signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("fatal", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}
