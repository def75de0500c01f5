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

	"github.com/actuallystonmai/meal-recommendation-service/internal/cache"
	"github.com/actuallystonmai/meal-recommendation-service/internal/config"
	"github.com/actuallystonmai/meal-recommendation-service/internal/handler"
	"github.com/actuallystonmai/meal-recommendation-service/internal/logging"
	"github.com/actuallystonmai/meal-recommendation-service/internal/repository"
	"github.com/actuallystonmai/meal-recommendation-service/internal/router"
	"github.com/actuallystonmai/meal-recommendation-service/internal/service"
	"github.com/actuallystonmai/meal-recommendation-service/seeds"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log := logging.Component("main")

	ctx := context.Background()

	// ------------ PostgreSQL (optional) ---------------
	var repo *repository.Repository
	if cfg.DatabaseURL != "" {
		pool, err := openDB(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("database not ready")
		}
		defer pool.Close()

		// for migrate-down using CLI command
		if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
			if err := migrateDown(ctx, pool, log); err != nil {
				log.Fatal().Err(err).Msg("failed to migrate down")
			}
			return
		}

		if err := migrateUp(ctx, pool, log); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate up")
		}
		repo = repository.NewRepository(pool)

		if err := checkSeed(ctx, pool, repo, cfg.CatalogPath, log); err != nil {
			log.Warn().Err(err).Msg("failed to seed foods")
		}
	} else if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		log.Fatal().Msg("migrate-down needs DATABASE_URL")
	}

	// ------------ Catalog, scaler, model ---------------
	// A failed load keeps the server up; recommendation requests then answer 500.
	engine, err := loadEngine(ctx, cfg, repo)
	if err != nil {
		log.Error().Err(err).Msg("recommendation resources unavailable")
	} else {
		log.Info().
			Int("items", engine.Catalog().Len()).
			Str("engine_fingerprint", engine.Fingerprint()).
			Msg("recommendation resources loaded")
	}

	// ------------ Redis (optional) ---------------
	var resultCache service.ResultCache
	if cfg.RedisURL != "" {
		client, c, err := openCache(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, serving without result cache")
		} else {
			defer client.Close()
			resultCache = c
			if engine != nil {
				n, err := c.ClearStale(ctx, engine.Fingerprint())
				if err != nil {
					log.Warn().Err(err).Msg("failed to clear stale cache entries")
				} else if n > 0 {
					log.Info().Int("deleted", n).Msg("cleared cache entries of older catalogs and models")
				}
			}
		}
	}

	// ---------------- Server --------------------
	svc := service.NewService(engine, resultCache)
	h := handler.NewHandler(svc)
	r := router.Setup(h, router.Options{
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
		RequestTimeout:    cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func openDB(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := waitForDB(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Msg("connected to PostgreSQL")
	return pool, nil
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		log.Info().Msgf("waiting for database... (%d/30)", i+1)
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrateDown(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	return runMigration(ctx, pool, "migrations/create_tables.down.sql", "migrations dropped successfully", log)
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	return runMigration(ctx, pool, "migrations/create_tables.up.sql", "migrations applied successfully", log)
}

func runMigration(ctx context.Context, pool *pgxpool.Pool, path, done string, log zerolog.Logger) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	log.Info().Str("file", path).Msg(done)
	return nil
}

func checkSeed(ctx context.Context, pool *pgxpool.Pool, repo *repository.Repository, path string, log zerolog.Logger) error {
	count, err := repo.CountFoods(ctx)
	if err != nil {
		return fmt.Errorf("check foods count: %w", err)
	}
	if count > 0 {
		log.Info().Int("foods", count).Msg("database already seeded, skipping")
		return nil
	}
	return seeds.Setup(ctx, pool, path)
}

func openCache(ctx context.Context, cfg *config.Config) (*redis.Client, *cache.Cache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	c := cache.NewCache(client, cfg.CacheTTL)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, c, nil
}
