// Command quizapi serves the quiz HTTP API backed by a local libSQL file.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/eversols/autismquiz/internal/config"
	"github.com/eversols/autismquiz/internal/database"
	"github.com/eversols/autismquiz/internal/handler/health"
	"github.com/eversols/autismquiz/internal/migrations"
	"github.com/eversols/autismquiz/internal/server"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	store := server.NewSQLiteStore(db)
	if err := server.Seed(ctx, logger, store); err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	checks, closeChecks, err := healthChecks(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeChecks()

	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Store:  store,
		Tokens: server.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Health: health.NewHandler(logger, checks).Routes(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})
	return g.Wait()
}

// healthChecks always probes sqlite. Redis is probed only when REDIS_URL is
// set; the returned func closes that client.
func healthChecks(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (map[string]health.Checker, func(), error) {
	checks := map[string]health.Checker{
		"sqlite": health.CheckerFunc(db.PingContext),
	}
	if cfg.RedisURL == "" {
		return checks, func() {}, nil
	}

	rdb, err := openRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	logger.Info("connected to redis")
	checks["redis"] = health.CheckerFunc(func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	return checks, func() { rdb.Close() }, nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}
