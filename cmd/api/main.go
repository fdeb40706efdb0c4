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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-habit-dashboard/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/config"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogConsole)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", cfg.DBDriver).Msg("kanso habit dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		log.Info().Msg("stop signal received, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}

type app struct {
	router  *gin.Engine
	worker  *workers.StatsWorker
	closers []func() error
	log     zerolog.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}

// newApp wires storage, caches, services and the router. The stats worker
// runs until ctx is cancelled.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{log: log}
	startTime := time.Now()

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	checks := map[string]adapterHTTP.HealthCheck{}

	habitRepo, err := a.openHabitRepository(ctx, cfg, checks)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		rdb          *redis.Client
		categoryRepo domain.CategoryRepository = repository.NewInMemoryCategoryRepository()
		statsCache   domain.StatsCache         = cache.NewMemoryStatsCache()
	)

	if cfg.RedisEnabled() {
		rdb, err = cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		habitRepo = repository.NewCachedHabitRepository(habitRepo, rdb, log)
		categoryRepo = repository.NewRedisCategoryRepository(rdb)
		statsCache = cache.NewRedisStatsCache(rdb)
		log.Info().Str("host", cfg.RedisHost).Msg("redis connected")
	} else {
		log.Warn().Msg("REDIS_HOST not set, categories and stats are kept in memory")
	}

	a.worker = workers.NewStatsWorker(habitRepo, statsCache, loc, log)
	a.worker.Start(ctx)
	if err := a.worker.Schedule(ctx, cfg.RefreshSchedule); err != nil {
		a.Close()
		return nil, fmt.Errorf("schedule stats refresh: %w", err)
	}
	go func() {
		if n, err := a.worker.RefreshAll(ctx); err != nil {
			log.Error().Err(err).Msg("initial stats refresh failed")
		} else {
			log.Info().Int("habits", n).Msg("initial stats refresh queued")
		}
	}()

	habitService := services.NewHabitService(habitRepo, statsCache, a.worker, log)
	statsService := services.NewStatsService(habitRepo, statsCache, loc, log)
	categoryService := services.NewCategoryService(categoryRepo)

	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	authService, err := services.NewAuthService(cfg.Passphrase, tokenService)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("auth: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(authService),
		HabitHandler:    adapterHTTP.NewHabitHandler(habitService, statsService),
		CalendarHandler: adapterHTTP.NewCalendarHandler(statsService),
		CategoryHandler: adapterHTTP.NewCategoryHandler(categoryService),
		Redis:           rdb,
		RateLimit:       cfg.RateLimit,
		RateWindow:      cfg.RateWindow,
		CORSOrigins:     cfg.CORSOrigins,
		Logger:          log,
		Registry:        reg,
		HealthChecks:    checks,
		StartTime:       startTime,
	}
	if cfg.AuthEnabled() {
		deps.TokenService = tokenService
	} else {
		log.Warn().Msg("DASHBOARD_PASSPHRASE not set, the API is open")
	}

	a.router = adapterHTTP.NewRouter(deps)
	return a, nil
}

func (a *app) openHabitRepository(ctx context.Context, cfg *config.Config, checks map[string]adapterHTTP.HealthCheck) (domain.HabitRepository, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		db, err := sqlx.Connect("pgx", cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		repo := repository.NewPostgresHabitRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		checks["database"] = db.PingContext
		a.log.Info().Str("host", cfg.DBHost).Msg("database connected")
		return repo, nil

	case config.DriverSQLite:
		db, err := repository.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		checks["database"] = db.PingContext
		a.log.Info().Str("path", cfg.SQLitePath).Msg("sqlite opened")
		return repository.NewSQLiteHabitRepository(db), nil

	case config.DriverMemory:
		a.log.Warn().Msg("in-memory storage, habits are lost on restart")
		return repository.NewInMemoryHabitRepository(), nil

	default:
		return nil, config.ErrUnknownDriver
	}
}
